package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// ErrDuplicateRequest is returned when an Idempotency-Key has already been used.
var ErrDuplicateRequest = errors.New("duplicate request")

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing their types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidBody),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrEmailInUse),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrDuplicateRequest):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, shared.ErrInvalidBody):
		return "Invalid request format"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Validation failed"
	case errors.Is(err, service.ErrEmailInUse):
		return "Email already in use"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, ErrDuplicateRequest):
		return "Duplicate request"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the response for err. Validation errors carry their
// field list; everything else gets a safe message and a redacted log entry.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.HasErrors() {
		shared.RespondWithValidationError(w, r, verr)
		return
	}

	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
