package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kiranakart/kirana-backend/internal/auth"
	"github.com/kiranakart/kirana-backend/internal/domain/coupon"
	"github.com/kiranakart/kirana-backend/internal/domain/credit"
	"github.com/kiranakart/kirana-backend/internal/domain/customer"
	"github.com/kiranakart/kirana-backend/internal/domain/order"
	"github.com/kiranakart/kirana-backend/internal/domain/product"
)

// errorResponse is the JSON error envelope for every non-2xx response.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		// Internal details stay in the log.
		writeJSON(w, status, errorResponse{Code: status, Message: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Code: status, Message: err.Error()})
}

// statusFor maps domain errors to HTTP statuses. Anything unmapped is an
// internal error.
func statusFor(err error) int {
	var (
		notFoundProduct *order.ProductNotFoundError
		invalidQty      *order.InvalidQuantityError
	)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, coupon.ErrUsageLimitExceeded),
		errors.Is(err, credit.ErrInactiveAccount),
		errors.Is(err, credit.ErrOutstandingBalance),
		errors.Is(err, credit.ErrInsufficientCredit):
		return http.StatusConflict
	case errors.Is(err, coupon.ErrInvalid),
		errors.Is(err, coupon.ErrBelowMinimumOrder),
		errors.Is(err, coupon.ErrNotApplicable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, credit.ErrInvalidAmount),
		errors.Is(err, credit.ErrReasonRequired),
		errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &notFoundProduct),
		errors.As(err, &invalidQty):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

// badRequest writes a 400 with the given message.
func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}
