// Package handler exposes the POS service as a JSON HTTP API.
package handler

import (
	"net/http"
	"strings"

	"github.com/xenking/erp-pos/internal/domain/pos"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative menu image paths. When empty,
	// image paths are returned as configured.
	ImageBaseURL string
}

// Handler serves the /api routes.
type Handler struct {
	pos          *pos.Service
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg HandlerConfig, svc *pos.Service) *Handler {
	return &Handler{
		pos:          svc,
		imageBaseURL: strings.TrimSuffix(cfg.ImageBaseURL, "/"),
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/menu", h.GetMenu)
	mux.HandleFunc("GET /api/tables", h.ListTables)
	mux.HandleFunc("GET /api/tables/{table}/order", h.GetOrder)
	mux.HandleFunc("DELETE /api/tables/{table}/order", h.CancelOrder)
	mux.HandleFunc("POST /api/tables/{table}/items", h.AddItem)
	mux.HandleFunc("PUT /api/tables/{table}/items/{line}", h.UpdateQuantity)
	mux.HandleFunc("POST /api/tables/{table}/kitchen", h.SendToKitchen)
	mux.HandleFunc("POST /api/tables/{table}/bill", h.Settle)
	mux.HandleFunc("GET /api/sales/report", h.GetReport)
	mux.HandleFunc("GET /api/sales/invoices", h.ListInvoices)
}

func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return h.imageBaseURL + "/" + strings.TrimPrefix(path, "/")
}
