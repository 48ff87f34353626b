// Package catalog filters, ranks, and pages externally supplied deal records.
package catalog

import (
	"sort"
	"strings"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
	"github.com/dealpulse/dealpulse-bot/internal/query"
)

// Page sizes used by the two listing flows.
const (
	PageSizeCompact = 5
	PageSizeFull    = 10
)

// Search applies budget and token constraints to offers and returns the
// survivors ranked. The input slice is never mutated.
//
// The effective budget is the tighter of the parsed budget and the user's
// stored ceiling; absent means unlimited. A non-empty token set is matched
// conjunctively: every token must be a case-insensitive substring of the
// offer's searchable text.
func Search(offers []domain.Offer, q query.Query, user *domain.User) []domain.Offer {
	budget := effectiveBudget(q.Budget, userBudget(user))

	matched := make([]domain.Offer, 0, len(offers))
	for _, offer := range offers {
		if budget != nil && offer.Price > *budget {
			continue
		}
		if !matchesTokens(offer, q.Tokens) {
			continue
		}
		matched = append(matched, offer)
	}

	Rank(matched)
	return matched
}

// Rank orders offers in place by discount desc, cashback desc, then price
// asc. The sort is stable so equal offers keep their input order; the "top 3"
// and "top 10" slices downstream depend on exactly this policy.
func Rank(offers []domain.Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i], offers[j]
		if a.Discount != b.Discount {
			return a.Discount > b.Discount
		}
		if a.Cashback != b.Cashback {
			return a.Cashback > b.Cashback
		}
		return a.Price < b.Price
	})
}

// SearchableText concatenates the fields a token may match against.
func SearchableText(offer domain.Offer) string {
	parts := []string{offer.Title, offer.Brand, offer.Category, offer.Store}
	parts = append(parts, offer.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

func matchesTokens(offer domain.Offer, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}

	haystack := SearchableText(offer)
	for _, token := range tokens {
		if !strings.Contains(haystack, token) {
			return false
		}
	}

	return true
}

func effectiveBudget(parsed, stored *int) *int {
	switch {
	case parsed == nil:
		return stored
	case stored == nil:
		return parsed
	case *stored < *parsed:
		return stored
	default:
		return parsed
	}
}

func userBudget(user *domain.User) *int {
	if user == nil {
		return nil
	}
	return user.Budget
}
