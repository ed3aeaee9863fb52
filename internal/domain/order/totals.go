package order

import (
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat sales tax applied to every bill.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// Totals is the bill of a table.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal sums UnitPrice * Quantity over all lines, whatever their status.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range items {
		sum = sum.Add(l.Amount())
	}
	return sum
}

// ComputeTotals applies taxRate to the subtotal of items. Tax is rounded to
// cents.
func ComputeTotals(items []LineItem, taxRate decimal.Decimal) Totals {
	subtotal := Subtotal(items)
	tax := subtotal.Mul(taxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Selectable returns the lines that may still be dispatched to the kitchen.
func Selectable(items []LineItem) []LineItem {
	var out []LineItem
	for _, l := range items {
		if l.Status == StatusNew {
			out = append(out, l)
		}
	}
	return out
}

// HasNew reports whether any line has not been sent to the kitchen.
func HasNew(items []LineItem) bool {
	return slices.ContainsFunc(items, func(l LineItem) bool { return l.Status == StatusNew })
}

// CategoryRanker gives the display position of a category.
type CategoryRanker interface {
	CategoryIndex(categoryID string) int
}

// SortForDisplay returns a copy of items ordered by category display position.
// Lines of the same category keep their insertion order.
func SortForDisplay(items []LineItem, categories CategoryRanker) []LineItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b LineItem) int {
		return categories.CategoryIndex(a.CategoryID) - categories.CategoryIndex(b.CategoryID)
	})
	return out
}
