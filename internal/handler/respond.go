package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/Pons070/studio-sub000/internal/domain/menu"
	"github.com/Pons070/studio-sub000/internal/domain/order"
	"github.com/Pons070/studio-sub000/internal/domain/promotion"
)

// errorBody is the uniform error envelope for every non-2xx response.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}

// decodeJSON rejects unknown fields so typos in request bodies fail loudly.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

// writeDomainError maps domain errors to HTTP statuses. Unrecognized errors
// become an opaque 500 and are logged with the request context.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrEmptyMessage),
		errors.Is(err, order.ErrMissingCancellationReason):
		writeError(w, http.StatusBadRequest, err.Error())
		return

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, promotion.ErrNotFound),
		errors.Is(err, menu.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return

	case errors.Is(err, order.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
		return

	case errors.Is(err, promotion.ErrCouponNotFound):
		writeError(w, http.StatusUnprocessableEntity, "invalid coupon code")
		return
	}

	var iqErr *order.InvalidQuantityError
	if errors.As(err, &iqErr) {
		writeError(w, http.StatusUnprocessableEntity, iqErr.Error())
		return
	}

	var unavailErr *order.ItemUnavailableError
	if errors.As(err, &unavailErr) {
		writeError(w, http.StatusUnprocessableEntity, unavailErr.Error())
		return
	}

	var minErr *promotion.MinimumNotMetError
	if errors.As(err, &minErr) {
		writeError(w, http.StatusUnprocessableEntity, minErr.Error())
		return
	}

	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
