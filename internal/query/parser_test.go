package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Tokens(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "lowercases and splits on punctuation",
			raw:  "Sony WH-1000XM5 Headphones",
			want: []string{"sony", "wh", "xm5", "headphones"},
		},
		{
			name: "drops budget filler words",
			raw:  "oneplus 12 under 20000",
			want: []string{"oneplus"},
		},
		{
			name: "drops pure digit runs",
			raw:  "iphone 15 128",
			want: []string{"iphone"},
		},
		{
			name: "empty input",
			raw:  "   ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.Equal(t, tt.want, got.Tokens)
		})
	}
}

func TestParse_Budget(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *int
	}{
		{
			name: "plain number",
			raw:  "headphones under 2000",
			want: intPtr(2000),
		},
		{
			name: "thousands separator stripped",
			raw:  "oneplus under 20,000",
			want: intPtr(20000),
		},
		{
			name: "short runs are model numbers not budgets",
			raw:  "oneplus 12",
			want: nil,
		},
		{
			name: "small values are noise",
			raw:  "socks under 300",
			want: nil,
		},
		{
			name: "minimum of several candidates wins",
			raw:  "laptop under 50000 emi 5000",
			want: intPtr(5000),
		},
		{
			name: "no number at all",
			raw:  "wireless mouse",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got.Budget)
				return
			}

			require.NotNil(t, got.Budget)
			assert.Equal(t, *tt.want, *got.Budget)
		})
	}
}

func TestParse_TokensAndBudgetTogether(t *testing.T) {
	q := Parse("OnePlus 12 under 20000")

	assert.Equal(t, []string{"oneplus"}, q.Tokens)
	require.NotNil(t, q.Budget)
	assert.Equal(t, 20000, *q.Budget)
	assert.True(t, q.HasTokens())
}

func TestDigitRuns(t *testing.T) {
	assert.Equal(t, []string{"20000", "500"}, digitRuns("under 20,000 or 500"))
	assert.Empty(t, digitRuns("no numbers here"))
}

func intPtr(v int) *int { return &v }
