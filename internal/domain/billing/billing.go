// Package billing describes the contract of the external invoicing system.
package billing

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrConfigurationMissing is returned when the invoicing endpoint or its
	// credentials are not configured.
	ErrConfigurationMissing = errors.New("invoicing system is not configured")
	// ErrTimeout is returned when the invoicing system did not answer in time.
	ErrTimeout = errors.New("invoicing system timed out")
)

// RejectedError is returned when the invoicing system answered with a
// failure. Message is the remote explanation and is shown to staff as is.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("invoice rejected (%d): %s", e.StatusCode, e.Message)
}

// InvoiceItem is one billed line.
type InvoiceItem struct {
	Code     string
	Quantity int
	Rate     decimal.Decimal
}

// Invoice is a sale to record in the invoicing system.
type Invoice struct {
	TableID       string
	Items         []InvoiceItem
	Total         decimal.Decimal
	PaymentMethod string
}

// Receipt confirms a recorded invoice.
type Receipt struct {
	InvoiceID string
	Message   string
	Simulated bool
}

// InvoiceRecord is a summary of an invoice stored in the invoicing system.
type InvoiceRecord struct {
	ID          string
	Customer    string
	PostingDate string
	GrandTotal  decimal.Decimal
}

// Biller records sales in the invoicing system.
type Biller interface {
	CreateInvoice(ctx context.Context, inv Invoice) (Receipt, error)
	RecentInvoices(ctx context.Context, limit int) ([]InvoiceRecord, error)
}
