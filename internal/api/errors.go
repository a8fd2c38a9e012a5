package api

import (
	"errors"
	"net/http"

	"github.com/trackstudio/trackstudio-api/internal/auth"
	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/generation"
	"github.com/trackstudio/trackstudio-api/internal/service"
	"github.com/trackstudio/trackstudio-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// The credit gate and provider credit refusals surface as 402 so the
	// client can distinguish them from generic failures.
	case errors.Is(err, generation.ErrInsufficientCredits):
		return http.StatusPaymentRequired

	// Not found errors
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, generation.ErrTaskNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrNotRetryable):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidConcurrency),
		errors.Is(err, domain.ErrEmptyProjectID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Blocked lyrics are a content problem, not a server fault
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity

	case errors.Is(err, service.ErrHistoryUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, generation.ErrInsufficientCredits):
		return "Insufficient generation credits"

	case errors.Is(err, service.ErrItemNotFound):
		return "Queue item not found"

	case errors.Is(err, generation.ErrTaskNotFound):
		return "Generation task not found"

	case errors.Is(err, service.ErrNotRetryable):
		return "Only failed items can be retried"

	case errors.Is(err, domain.ErrValidation):
		// Validation failures carry the field-level reason; it is safe
		// to show because it only restates the request rules.
		return err.Error()

	case errors.Is(err, domain.ErrInvalidConcurrency):
		return "Max concurrency must be at least 1"

	case errors.Is(err, domain.ErrEmptyProjectID):
		return "Project ID cannot be empty"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, generation.ErrContentBlocked):
		return "The lyrics request was blocked by content filters"

	case errors.Is(err, service.ErrHistoryUnavailable):
		return "Job history is not configured"

	default:
		return "An unexpected error occurred"
	}
}
