package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealpulse/dealpulse-bot/internal/domain"
)

func TestFilter_PriceRange(t *testing.T) {
	offers := testOffers()

	got := Filter(offers, Filters{MinPrice: 2000, MaxPrice: 30000})

	require.Len(t, got, 2)
	assert.Equal(t, "o1", got[0].ID)
	assert.Equal(t, "o4", got[1].ID)
}

func TestFilter_MinDiscount(t *testing.T) {
	got := Filter(testOffers(), Filters{MinDiscount: 40})

	require.Len(t, got, 2)
	assert.Equal(t, "o3", got[0].ID)
	assert.Equal(t, "o4", got[1].ID)
}

func TestFilter_Stores(t *testing.T) {
	got := Filter(testOffers(), Filters{Stores: []string{"amazon"}})

	require.Len(t, got, 2)
	for _, offer := range got {
		assert.Equal(t, "Amazon", offer.Store)
	}
}

func TestFilter_Categories(t *testing.T) {
	got := Filter(testOffers(), Filters{Categories: []string{domain.CategoryFashion}})

	require.Len(t, got, 1)
	assert.Equal(t, "o4", got[0].ID)
}

func TestFilter_EmptyReturnsAll(t *testing.T) {
	offers := testOffers()

	got := Filter(offers, Filters{})

	assert.Len(t, got, len(offers))
	assert.True(t, Filters{}.Empty())
	assert.False(t, Filters{MinPrice: 1}.Empty())
}

func TestPaginate(t *testing.T) {
	offers := make([]domain.Offer, 12)
	for i := range offers {
		offers[i].ID = string(rune('a' + i))
	}

	tests := []struct {
		name    string
		page    int
		size    int
		wantLen int
		wantIDs []string
	}{
		{name: "first page", page: 1, size: 5, wantLen: 5, wantIDs: []string{"a", "b", "c", "d", "e"}},
		{name: "partial last page", page: 3, size: 5, wantLen: 2, wantIDs: []string{"k", "l"}},
		{name: "past the end", page: 4, size: 5, wantLen: 0},
		{name: "zero page", page: 0, size: 5, wantLen: 0},
		{name: "zero size", page: 1, size: 0, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(offers, tt.page, tt.size)

			require.Len(t, got, tt.wantLen)
			for i, id := range tt.wantIDs {
				assert.Equal(t, id, got[i].ID)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 5))
	assert.Equal(t, 1, TotalPages(5, 5))
	assert.Equal(t, 2, TotalPages(6, 5))
	assert.Equal(t, 3, TotalPages(12, 5))
	assert.Equal(t, 0, TotalPages(10, 0))
}
