package httpx

import (
	"errors"
	"net/http"

	"github.com/saral-erp/saral-erp/internal/shared"
)

// RespondError maps the shared error taxonomy to HTTP responses using RFC7807.
// The detail carries the wrapped message; internal stack detail stays in logs.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrTransient):
		Problem(w, http.StatusServiceUnavailable, "Temporarily Unavailable", "please retry")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
