package pos

import "github.com/go-faster/errors"

// Sentinel errors for POS requests that are rejected before any collaborator
// is called.
var (
	ErrUnknownTable         = errors.New("unknown table")
	ErrUnknownMenuItem      = errors.New("unknown menu item")
	ErrNoItemsSelected      = errors.New("no items selected")
	ErrEmptyOrder           = errors.New("order is empty")
	ErrUnsentItems          = errors.New("all items must be sent to the kitchen before billing")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrTableBusy            = errors.New("another request for this table is in progress")
	ErrOrderChanged         = errors.New("order changed during settlement")
)
