package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/erp-pos/internal/domain/menu"
)

// Status is the kitchen state of an order line.
type Status uint8

const (
	// StatusNew lines have not been seen by the kitchen and may still change.
	StatusNew Status = iota
	// StatusSent lines were confirmed by a kitchen dispatch and are frozen.
	StatusSent
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusSent:
		return "sent"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// LineItem is one addition batch of a menu item to a table's order. Menu data
// is copied at add time, so later catalog changes do not touch open orders.
type LineItem struct {
	LineID     string
	MenuItemID string
	Name       string
	UnitPrice  decimal.Decimal
	CategoryID string
	Quantity   int
	Status     Status
}

// Amount is UnitPrice * Quantity.
func (l LineItem) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// send moves the line to StatusSent. It reports whether the status changed;
// sent lines never revert.
func (l *LineItem) send() bool {
	if l.Status != StatusNew {
		return false
	}
	l.Status = StatusSent
	return true
}

func newLine(id string, it menu.Item) LineItem {
	return LineItem{
		LineID:     id,
		MenuItemID: it.ID,
		Name:       it.Name,
		UnitPrice:  it.Price,
		CategoryID: it.CategoryID,
		Quantity:   1,
		Status:     StatusNew,
	}
}

// CompletedSale is the immutable record of a settled table.
type CompletedSale struct {
	ID            string
	TableID       string
	Items         []LineItem
	Total         decimal.Decimal
	PaymentMethod string
	CompletedAt   time.Time
}

// SaleRecorder receives completed sales. Record is called while the table is
// locked and must not block on I/O.
type SaleRecorder interface {
	Record(sale CompletedSale)
}

// TableStatus is the floor-plan state of a table, derived from its order.
type TableStatus string

const (
	// TableAvailable has no open order.
	TableAvailable TableStatus = "available"
	// TableOccupied has an open order with lines the kitchen has not seen yet.
	TableOccupied TableStatus = "occupied"
	// TableBilling has an open order whose lines were all sent to the kitchen.
	TableBilling TableStatus = "billing"
)

// InvalidTransitionError is returned when a mutation targets a line that is
// no longer editable.
type InvalidTransitionError struct {
	LineID string
	Status Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("line %s is %s and cannot be changed", e.LineID, e.Status)
}
