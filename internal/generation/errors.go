package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrInsufficientCredits is returned when the provider refuses a
	// submission because the account has run out of credits. It is a
	// first-class signal, distinct from generic submission failure, so
	// callers can react before the item is abandoned.
	ErrInsufficientCredits = errors.New("insufficient generation credits")

	// ErrSubmissionFailed is returned when the provider rejects a
	// submission for any other reason (network, validation, provider
	// error).
	ErrSubmissionFailed = errors.New("generation submission failed")

	// ErrTaskNotFound is returned when a status lookup names a task the
	// provider does not know.
	ErrTaskNotFound = errors.New("generation task not found")

	// ErrInvalidResponse is returned when the provider response cannot be
	// parsed or is missing required fields.
	ErrInvalidResponse = errors.New("invalid response from generation provider")

	// ErrInvalidConfig is returned when a provider adapter configuration
	// is invalid.
	ErrInvalidConfig = errors.New("invalid generation client configuration")

	// ErrContentBlocked is returned when the lyrics model blocks the
	// request due to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")
)
