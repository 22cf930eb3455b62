package api

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/webkite/storefront/internal/auth"
	"github.com/webkite/storefront/internal/catalog"
	"github.com/webkite/storefront/internal/domain/order"
	"github.com/webkite/storefront/internal/domain/product"
	"github.com/webkite/storefront/internal/domain/user"
	"github.com/webkite/storefront/internal/query"
	"github.com/webkite/storefront/internal/store"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeError maps a typed domain error onto an HTTP status and writes the
// JSON error body. Unrecognized errors become an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logError(r, "Request failed", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}

func statusFor(err error) int {
	var (
		validationErr      *order.ValidationError
		productInputErr    *catalog.ValidationError
		unknownProductErr  *order.UnknownProductError
		invalidQuantityErr *order.InvalidQuantityError
		totalMismatchErr   *order.TotalMismatchError
		invalidStatusErr   *order.InvalidStatusError
		duplicateNameErr   *product.DuplicateNameError
		writeErr           *store.WriteError
	)

	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &productInputErr),
		errors.As(err, &unknownProductErr),
		errors.As(err, &invalidQuantityErr),
		errors.As(err, &totalMismatchErr),
		errors.As(err, &invalidStatusErr),
		errors.As(err, &duplicateNameErr),
		errors.Is(err, query.ErrInvalidQuery),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized

	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound

	case errors.As(err, &writeErr):
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}

// unauthorized writes the 401 response used when no valid identity is
// presented.
func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errorBody{
		Code:    http.StatusUnauthorized,
		Message: "authentication required",
	})
}

// badRequest writes a 400 with the given message.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{
		Code:    http.StatusBadRequest,
		Message: msg,
	})
}
