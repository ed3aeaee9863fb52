package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/erp-pos/internal/domain/menu"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name         string
		items        []LineItem
		wantSubtotal string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "empty order",
			wantSubtotal: "0",
			wantTax:      "0",
			wantTotal:    "0",
		},
		{
			name: "new and sent lines both count",
			items: []LineItem{
				{UnitPrice: d("8.50"), Quantity: 2, Status: StatusSent},
				{UnitPrice: d("3.00"), Quantity: 1, Status: StatusNew},
			},
			wantSubtotal: "20.00",
			wantTax:      "2.00",
			wantTotal:    "22.00",
		},
		{
			name: "tax rounded to cents",
			items: []LineItem{
				{UnitPrice: d("4.55"), Quantity: 1},
			},
			wantSubtotal: "4.55",
			wantTax:      "0.46",
			wantTotal:    "5.01",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.items, DefaultTaxRate)
			assert.True(t, d(tt.wantSubtotal).Equal(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, d(tt.wantTax).Equal(got.Tax), "tax %s", got.Tax)
			assert.True(t, d(tt.wantTotal).Equal(got.Total), "total %s", got.Total)

			// total stays within a cent of subtotal * (1 + rate).
			exact := got.Subtotal.Mul(d("1.10"))
			assert.True(t, got.Total.Sub(exact).Abs().LessThanOrEqual(d("0.005")))
		})
	}
}

func TestSelectable(t *testing.T) {
	items := []LineItem{
		{LineID: "1", Status: StatusSent},
		{LineID: "2", Status: StatusNew},
		{LineID: "3", Status: StatusNew},
	}

	got := Selectable(items)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].LineID)
	assert.Equal(t, "3", got[1].LineID)
	assert.Empty(t, Selectable(items[:1]))
}

func TestSortForDisplay_StableByCategory(t *testing.T) {
	catalog := menu.Default()
	items := []LineItem{
		{LineID: "wine", CategoryID: "beverages"},
		{LineID: "salmon", CategoryID: "main-courses"},
		{LineID: "bread", CategoryID: "appetizers"},
		{LineID: "pizza", CategoryID: "main-courses"},
		{LineID: "mystery", CategoryID: "unknown"},
		{LineID: "water", CategoryID: "beverages"},
	}

	got := SortForDisplay(items, catalog)

	ids := make([]string, len(got))
	for i, l := range got {
		ids[i] = l.LineID
	}
	assert.Equal(t, []string{"bread", "salmon", "pizza", "wine", "water", "mystery"}, ids)
	assert.Equal(t, "wine", items[0].LineID, "input is not reordered")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "new", StatusNew.String())
	assert.Equal(t, "sent", StatusSent.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}
