package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// Request-level errors raised before a service is called.
var (
	// ErrInvalidRequest indicates a body that is not valid JSON or has fields of
	// the wrong type.
	ErrInvalidRequest = errors.New("invalid request format")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var maxBytesErr *http.MaxBytesError

	switch {
	// Checked first: a failed transaction may wrap any other error.
	case errors.Is(err, store.ErrTransactionFailed):
		return http.StatusInternalServerError

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, store.ErrTransactionFailed):
		return "Failed to clear completed tasks"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Validation failed"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"

	case errors.Is(err, ErrInvalidRequest):
		return "Invalid request format"

	case errors.As(err, &maxBytesErr):
		return "Request body too large"

	case errors.Is(err, store.ErrNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Duplicate key error"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err: status and message from
// MapErrorToStatusCode and GetSafeErrorMessage, the field messages of a
// validation error and the key of a duplicate. A non-empty message overrides
// the generic 500 message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	userMessage := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && message != "" && !errors.Is(err, store.ErrTransactionFailed) {
		userMessage = message
	}

	var opts []shared.ResponseOption

	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.HasErrors() {
		opts = append(opts, shared.WithFieldErrors(verr.Messages()))
	}

	var dupErr *store.DuplicateKeyError
	if errors.As(err, &dupErr) && len(dupErr.Key) > 0 {
		opts = append(opts, shared.WithDetail(dupErr.Key))
	}

	shared.RespondWithErrorAndLog(w, r, status, userMessage, err, opts...)
}
