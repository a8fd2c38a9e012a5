package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidStatus is returned when a queue item or job status is not
	// one of the recognized values.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidTransition is returned when a status change would move
	// backwards through the item lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrEmptyProjectID is returned when an operation requires a project
	// namespace and none was given.
	ErrEmptyProjectID = errors.New("project ID cannot be empty")

	// ErrInvalidConcurrency is returned when the queue concurrency limit
	// is not a positive integer.
	ErrInvalidConcurrency = errors.New("max concurrency must be at least 1")
)
