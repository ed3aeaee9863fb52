package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/erp-pos/internal/domain/order"
	"github.com/xenking/erp-pos/internal/domain/pos"
)

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// writeDomainError maps service errors to HTTP errors. Unknown errors are
// logged and reported as 500 without details.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var transitionErr *order.InvalidTransitionError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, pos.ErrNoItemsSelected):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pos.ErrUnknownTable):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pos.ErrUnknownMenuItem),
		errors.Is(err, pos.ErrUnknownPaymentMethod):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, pos.ErrEmptyOrder),
		errors.Is(err, pos.ErrUnsentItems),
		errors.Is(err, pos.ErrTableBusy),
		errors.Is(err, pos.ErrOrderChanged),
		errors.As(err, &transitionErr):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
