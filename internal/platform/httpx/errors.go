package httpx

import (
	"errors"
	"net/http"

	"github.com/kirana-pos/kirana/internal/shared"
)

// RespondError maps domain errors to HTTP responses.
// Internal failures are reported generically; callers log the detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		respond(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrIdempotencyConflict):
		respond(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, shared.ErrInvalidArgument):
		respond(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		respond(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	default:
		respond(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func respond(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorEnvelope{Error: ErrorBody{Code: code, Message: message}})
}
