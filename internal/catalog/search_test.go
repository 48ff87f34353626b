package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
	"github.com/dealpulse/dealpulse-bot/internal/query"
)

func testOffers() []domain.Offer {
	return []domain.Offer{
		{
			ID:       "o1",
			Title:    "OnePlus 12R 8GB",
			Brand:    "OnePlus",
			Category: domain.CategoryElectronics,
			Store:    "Amazon",
			Price:    19999,
			Discount: 20,
			Cashback: 500,
		},
		{
			ID:       "o2",
			Title:    "OnePlus 12 16GB",
			Brand:    "OnePlus",
			Category: domain.CategoryElectronics,
			Store:    "Flipkart",
			Price:    54999,
			Discount: 15,
		},
		{
			ID:       "o3",
			Title:    "Noise Buds Pro",
			Brand:    "Noise",
			Category: domain.CategoryElectronics,
			Store:    "Amazon",
			Price:    1499,
			Discount: 40,
			Cashback: 100,
		},
		{
			ID:       "o4",
			Title:    "Levis Denim Jacket",
			Brand:    "Levis",
			Category: domain.CategoryFashion,
			Store:    "Myntra",
			Price:    2999,
			Discount: 40,
			Cashback: 300,
		},
	}
}

func TestSearch_TokensAndBudget(t *testing.T) {
	offers := testOffers()

	got := Search(offers, query.Parse("oneplus under 20000"), nil)

	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].ID)
}

func TestSearch_ConjunctiveTokens(t *testing.T) {
	offers := testOffers()

	// Both tokens must match the same offer.
	got := Search(offers, query.Parse("oneplus flipkart"), nil)

	require.Len(t, got, 1)
	assert.Equal(t, "o2", got[0].ID)
}

func TestSearch_NoTokensMatchesEverything(t *testing.T) {
	offers := testOffers()

	got := Search(offers, query.Parse(""), nil)

	assert.Len(t, got, len(offers))
}

func TestSearch_StoredBudgetApplies(t *testing.T) {
	offers := testOffers()
	budget := 2000
	user := &domain.User{Budget: &budget}

	got := Search(offers, query.Parse("oneplus"), user)

	assert.Empty(t, got)
}

func TestSearch_TighterBudgetWins(t *testing.T) {
	offers := testOffers()
	stored := 1000
	user := &domain.User{Budget: &stored}

	// Parsed 20000 vs stored 1000: the stored ceiling is tighter.
	got := Search(offers, query.Parse("under 20000"), user)

	assert.Empty(t, got)

	loose := 100000
	user.Budget = &loose
	got = Search(offers, query.Parse("oneplus under 20000"), user)
	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].ID)
}

func TestSearch_NoMatchReturnsEmpty(t *testing.T) {
	got := Search(testOffers(), query.Parse("nonexistent gadget"), nil)
	assert.Empty(t, got)
}

func TestRank_Ordering(t *testing.T) {
	offers := testOffers()

	Rank(offers)

	// o3 and o4 share discount 40; o4 wins on cashback. Then o1, then o2.
	ids := make([]string, 0, len(offers))
	for _, offer := range offers {
		ids = append(ids, offer.ID)
	}
	assert.Equal(t, []string{"o4", "o3", "o1", "o2"}, ids)
}

func TestRank_StableForTies(t *testing.T) {
	offers := []domain.Offer{
		{ID: "a", Discount: 10, Cashback: 0, Price: 100},
		{ID: "b", Discount: 10, Cashback: 0, Price: 100},
		{ID: "c", Discount: 10, Cashback: 0, Price: 100},
	}

	Rank(offers)

	assert.Equal(t, "a", offers[0].ID)
	assert.Equal(t, "b", offers[1].ID)
	assert.Equal(t, "c", offers[2].ID)
}

func TestSearchableText(t *testing.T) {
	offer := domain.Offer{
		Title:    "OnePlus 12R",
		Brand:    "OnePlus",
		Category: domain.CategoryElectronics,
		Store:    "Amazon",
		Tags:     []string{"5G", "Smartphone"},
	}

	text := SearchableText(offer)

	assert.Contains(t, text, "oneplus 12r")
	assert.Contains(t, text, "amazon")
	assert.Contains(t, text, "smartphone")
}
