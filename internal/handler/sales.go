package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// GetReport returns the sales dashboard.
func (h *Handler) GetReport(w http.ResponseWriter, _ *http.Request) {
	report := h.pos.Report()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeReport(e, report) })
}

// ListInvoices returns recent invoices from the invoicing system, or an
// empty list when it is unavailable.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	records := h.pos.Invoices(r.Context())
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeInvoices(e, records) })
}
