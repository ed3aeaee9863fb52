// Package ledger keeps the append-only record of settled tables and derives
// the sales dashboard figures from it.
package ledger

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/erp-pos/internal/domain/menu"
	"github.com/xenking/erp-pos/internal/domain/order"
)

var _ order.SaleRecorder = (*Ledger)(nil)

// Archive stores completed sales outside the process for external reporting.
type Archive interface {
	Save(ctx context.Context, sale order.CompletedSale) error
}

// Summary holds the headline figures of the dashboard.
type Summary struct {
	TotalRevenue      decimal.Decimal
	OrderCount        int
	AverageOrderValue decimal.Decimal
}

// CategoryRevenue is the revenue attributed to one menu category.
type CategoryRevenue struct {
	CategoryID string
	Name       string
	Revenue    decimal.Decimal
}

// Ledger holds completed sales, newest first.
type Ledger struct {
	mu    sync.RWMutex
	sales []order.CompletedSale
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{}
}

// Record prepends sale to the ledger.
func (l *Ledger) Record(sale order.CompletedSale) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sales = slices.Insert(l.sales, 0, sale)
}

// Sales returns every recorded sale, newest first.
func (l *Ledger) Sales() []order.CompletedSale {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.sales)
}

// Recent returns up to n of the newest sales.
func (l *Ledger) Recent(n int) []order.CompletedSale {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	return slices.Clone(l.sales[:min(n, len(l.sales))])
}

// Summary returns total revenue, order count and average order value. The
// average is zero when no sale was recorded.
func (l *Ledger) Summary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Summary{
		TotalRevenue:      decimal.Zero,
		OrderCount:        len(l.sales),
		AverageOrderValue: decimal.Zero,
	}
	for _, sale := range l.sales {
		s.TotalRevenue = s.TotalRevenue.Add(sale.Total)
	}
	if s.OrderCount > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.OrderCount))).Round(2)
	}
	return s
}

// RevenueByCategory walks every sold line and sums UnitPrice * Quantity into
// its category. Every catalog category is present, in display order; lines of
// categories unknown to the catalog are ignored.
func (l *Ledger) RevenueByCategory(catalog *menu.Catalog) []CategoryRevenue {
	cats := catalog.Categories()
	out := make([]CategoryRevenue, len(cats))
	index := make(map[string]int, len(cats))
	for i, c := range cats {
		out[i] = CategoryRevenue{CategoryID: c.ID, Name: c.Name, Revenue: decimal.Zero}
		index[c.ID] = i
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, sale := range l.sales {
		for _, line := range sale.Items {
			if i, ok := index[line.CategoryID]; ok {
				out[i].Revenue = out[i].Revenue.Add(line.Amount())
			}
		}
	}
	return out
}
