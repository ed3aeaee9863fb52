package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/erp-pos/internal/domain/pos"
)

// ListTables returns every table with its derived status.
func (h *Handler) ListTables(w http.ResponseWriter, _ *http.Request) {
	tables := h.pos.Tables()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeTables(e, tables) })
}

// GetOrder returns the open order of a table.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	v, err := h.pos.View(r.PathValue("table"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeView(e, v) })
}

// CancelOrder drops the open order of a table.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	if _, err := h.pos.CancelOrder(r.Context(), table); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem adds one unit of {"menuItemId"} to the table.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var menuItemID string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "menuItemId" {
			return d.Skip()
		}
		v, err := d.Str()
		menuItemID = v
		return err
	})
	if err == nil && menuItemID == "" {
		err = errors.Wrap(errBadRequest, "menuItemId is required")
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	v, err := h.pos.AddItem(r.Context(), r.PathValue("table"), menuItemID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeView(e, v) })
}

// UpdateQuantity sets {"quantity"} on a line; zero or less removes it.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var (
		quantity int
		seen     bool
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		v, err := d.Int()
		quantity, seen = v, true
		return err
	})
	if err == nil && !seen {
		err = errors.Wrap(errBadRequest, "quantity is required")
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	v, err := h.pos.UpdateQuantity(r.Context(), r.PathValue("table"), r.PathValue("line"), quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeView(e, v) })
}

// SendToKitchen dispatches {"lineIds":[...]} or {"all":true}. A kitchen
// failure is reported as {"success":false} with status 200.
func (h *Handler) SendToKitchen(w http.ResponseWriter, r *http.Request) {
	var sel pos.Selection
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "lineIds":
			return d.Arr(func(d *jx.Decoder) error {
				id, err := d.Str()
				sel.LineIDs = append(sel.LineIDs, id)
				return err
			})
		case "all":
			v, err := d.Bool()
			sel.All = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out, err := h.pos.SendToKitchen(r.Context(), r.PathValue("table"), sel)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) { encodeOutcome(e, out) })
	})
}

// Settle bills the table with {"paymentMethod"}. An invoicing failure is
// reported as {"success":false} with status 200.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	var method string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "paymentMethod" {
			return d.Skip()
		}
		v, err := d.Str()
		method = v
		return err
	})
	if err == nil && method == "" {
		err = errors.Wrap(errBadRequest, "paymentMethod is required")
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := h.pos.Settle(r.Context(), r.PathValue("table"), method)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSettle(e, res) })
}
