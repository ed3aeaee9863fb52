package menu

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	cats := c.Categories()
	require.Len(t, cats, 4)
	assert.Equal(t, "appetizers", cats[0].ID)
	assert.Equal(t, "beverages", cats[3].ID)
	assert.Len(t, c.Items(), 15)
	assert.Len(t, c.ItemsIn("desserts"), 3)

	it, err := c.Item("6")
	require.NoError(t, err)
	assert.Equal(t, "Grilled Salmon", it.Name)
	assert.True(t, decimal.RequireFromString("22").Equal(it.Price))
}

func TestCatalog_ItemNotFound(t *testing.T) {
	_, err := Default().Item("999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_CategoryIndex(t *testing.T) {
	c := Default()

	assert.Equal(t, 0, c.CategoryIndex("appetizers"))
	assert.Equal(t, 2, c.CategoryIndex("desserts"))
	assert.Equal(t, 4, c.CategoryIndex("specials"), "unknown categories sort last")
}

func TestNewCatalog_Validation(t *testing.T) {
	cats := []Category{{ID: "a", Name: "A"}}

	tests := []struct {
		name  string
		cats  []Category
		items []Item
	}{
		{
			name: "duplicate category",
			cats: []Category{{ID: "a"}, {ID: "a"}},
		},
		{
			name:  "duplicate item",
			cats:  cats,
			items: []Item{{ID: "1", CategoryID: "a"}, {ID: "1", CategoryID: "a"}},
		},
		{
			name:  "negative price",
			cats:  cats,
			items: []Item{{ID: "1", CategoryID: "a", Price: decimal.NewFromInt(-1)}},
		},
		{
			name:  "unknown category",
			cats:  cats,
			items: []Item{{ID: "1", CategoryID: "b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.cats, tt.items)
			require.Error(t, err)
		})
	}
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := Default()

	cats := c.Categories()
	cats[0].Name = "changed"
	assert.Equal(t, "Appetizers", c.Categories()[0].Name)
}
