package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/erp-pos/internal/domain/menu"
	"github.com/xenking/erp-pos/internal/domain/order"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newSale(id, total string, items ...order.LineItem) order.CompletedSale {
	return order.CompletedSale{
		ID:            id,
		TableID:       "1",
		Items:         items,
		Total:         d(total),
		PaymentMethod: "Cash",
		CompletedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecord_NewestFirst(t *testing.T) {
	l := New()
	l.Record(newSale("s1", "10"))
	l.Record(newSale("s2", "20"))
	l.Record(newSale("s3", "30"))

	sales := l.Sales()
	require.Len(t, sales, 3)
	assert.Equal(t, "s3", sales[0].ID)
	assert.Equal(t, "s1", sales[2].ID)

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "s3", recent[0].ID)
	assert.Equal(t, "s2", recent[1].ID)
	assert.Len(t, l.Recent(10), 3)
	assert.Empty(t, l.Recent(-1))
}

func TestSummary(t *testing.T) {
	t.Run("empty ledger", func(t *testing.T) {
		s := New().Summary()
		assert.Equal(t, 0, s.OrderCount)
		assert.True(t, s.TotalRevenue.IsZero())
		assert.True(t, s.AverageOrderValue.IsZero())
	})

	t.Run("aggregates totals", func(t *testing.T) {
		l := New()
		l.Record(newSale("s1", "33.00"))
		l.Record(newSale("s2", "11.00"))
		l.Record(newSale("s3", "10.00"))

		s := l.Summary()
		assert.Equal(t, 3, s.OrderCount)
		assert.True(t, d("54.00").Equal(s.TotalRevenue))
		assert.True(t, d("18.00").Equal(s.AverageOrderValue))
	})
}

func TestRevenueByCategory(t *testing.T) {
	catalog := menu.Default()

	t.Run("zero sales gives zero for every category", func(t *testing.T) {
		got := New().RevenueByCategory(catalog)
		require.Len(t, got, 4)
		for _, c := range got {
			assert.True(t, c.Revenue.IsZero(), c.CategoryID)
		}
		assert.Equal(t, "Appetizers", got[0].Name)
	})

	t.Run("sums lines regardless of status", func(t *testing.T) {
		l := New()
		l.Record(newSale("s1", "0",
			order.LineItem{CategoryID: "appetizers", UnitPrice: d("8.50"), Quantity: 2, Status: order.StatusSent},
			order.LineItem{CategoryID: "beverages", UnitPrice: d("3.00"), Quantity: 1, Status: order.StatusNew},
		))
		l.Record(newSale("s2", "0",
			order.LineItem{CategoryID: "appetizers", UnitPrice: d("6.00"), Quantity: 1, Status: order.StatusSent},
			order.LineItem{CategoryID: "retired", UnitPrice: d("99"), Quantity: 1, Status: order.StatusSent},
		))

		got := l.RevenueByCategory(catalog)
		byID := make(map[string]decimal.Decimal, len(got))
		for _, c := range got {
			byID[c.CategoryID] = c.Revenue
		}
		assert.True(t, d("23.00").Equal(byID["appetizers"]))
		assert.True(t, d("0").Equal(byID["main-courses"]))
		assert.True(t, d("3.00").Equal(byID["beverages"]))
		assert.NotContains(t, byID, "retired")
	})
}

func TestLedger_RecordsThroughStore(t *testing.T) {
	l := New()
	s := order.NewStore(l)
	item, err := menu.Default().Item("1")
	require.NoError(t, err)

	for i := range 3 {
		table := fmt.Sprint(i + 1)
		s.AddItem(table, item)
		items := s.Order(table)
		s.CompleteAndClear(table, items, order.ComputeTotals(items, order.DefaultTaxRate).Total, "Cash")
	}

	sum := l.Summary()
	assert.Equal(t, 3, sum.OrderCount)
	assert.True(t, d("28.05").Equal(sum.TotalRevenue))
}
