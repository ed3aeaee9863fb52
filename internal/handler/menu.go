package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// GetMenu returns the categories and items of the menu.
func (h *Handler) GetMenu(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeMenu(e, h.pos.Catalog())
	})
}
