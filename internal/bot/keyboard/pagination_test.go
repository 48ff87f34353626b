package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationRow_MiddlePage(t *testing.T) {
	row := PaginationRow(nil, "deals_page", 2, 4)

	require.Len(t, row, 3)
	assert.Equal(t, "1", row[0].Data)
	assert.Equal(t, "2/4", row[1].Text)
	assert.Equal(t, "3", row[2].Data)

	for _, button := range row {
		assert.Equal(t, "deals_page", button.Action)
	}
}

func TestPaginationRow_FirstPage(t *testing.T) {
	row := PaginationRow(nil, "deals_page", 1, 4)

	require.Len(t, row, 2)
	assert.Equal(t, "1/4", row[0].Text)
	assert.Equal(t, "2", row[1].Data)
}

func TestPaginationRow_LastPage(t *testing.T) {
	row := PaginationRow(nil, "deals_page", 4, 4)

	require.Len(t, row, 2)
	assert.Equal(t, "3", row[0].Data)
	assert.Equal(t, "4/4", row[1].Text)
}

func TestPaginationRow_SinglePage(t *testing.T) {
	row := PaginationRow(nil, "deals_page", 1, 1)

	require.Len(t, row, 1)
	assert.Equal(t, "1/1", row[0].Text)
}

func TestPaginationRow_ClampsOutOfRange(t *testing.T) {
	row := PaginationRow(nil, "deals_page", 9, 3)

	require.Len(t, row, 2)
	assert.Equal(t, "3/3", row[1].Text)

	row = PaginationRow(nil, "deals_page", 0, 3)
	require.Len(t, row, 2)
	assert.Equal(t, "1/3", row[0].Text)
}
