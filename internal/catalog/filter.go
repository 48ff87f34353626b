package catalog

import (
	"strings"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
)

// Filters are the explicit predicates of the "show only my filters" flow,
// independent of free-text search. Zero-valued fields are not applied; all
// supplied predicates must hold.
type Filters struct {
	MinPrice    int
	MaxPrice    int
	MinDiscount int
	MinRating   float64
	Stores      []string
	Categories  []string
}

// Empty reports whether no predicate is set.
func (f Filters) Empty() bool {
	return f.MinPrice == 0 && f.MaxPrice == 0 && f.MinDiscount == 0 &&
		f.MinRating == 0 && len(f.Stores) == 0 && len(f.Categories) == 0
}

// Filter returns the offers satisfying every supplied predicate, preserving
// input order. The input slice is never mutated.
func Filter(offers []domain.Offer, f Filters) []domain.Offer {
	allowed := lowerSet(f.Stores)
	categories := lowerSet(f.Categories)

	matched := make([]domain.Offer, 0, len(offers))
	for _, offer := range offers {
		if f.MinPrice > 0 && offer.Price < f.MinPrice {
			continue
		}
		if f.MaxPrice > 0 && offer.Price > f.MaxPrice {
			continue
		}
		if f.MinDiscount > 0 && offer.Discount < f.MinDiscount {
			continue
		}
		if f.MinRating > 0 && offer.Rating < f.MinRating {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[strings.ToLower(offer.Store)]; !ok {
				continue
			}
		}
		if categories != nil {
			if _, ok := categories[strings.ToLower(offer.Category)]; !ok {
				continue
			}
		}
		matched = append(matched, offer)
	}

	return matched
}

// Paginate slices offers into fixed-size pages, 1-based. A page beyond the
// available range yields an empty slice; signalling "no more items" is the
// caller's job.
func Paginate(offers []domain.Offer, page, size int) []domain.Offer {
	if page < 1 || size < 1 {
		return nil
	}

	start := (page - 1) * size
	if start >= len(offers) {
		return nil
	}

	end := start + size
	if end > len(offers) {
		end = len(offers)
	}

	return offers[start:end]
}

// TotalPages returns the number of pages needed for count items.
func TotalPages(count, size int) int {
	if count <= 0 || size < 1 {
		return 0
	}
	return (count + size - 1) / size
}

func lowerSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			set[value] = struct{}{}
		}
	}

	if len(set) == 0 {
		return nil
	}
	return set
}
