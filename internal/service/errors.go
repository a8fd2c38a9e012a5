package service

import "errors"

// Common sentinel errors for QueueService
var (
	// ErrItemNotFound indicates the queue item does not exist.
	ErrItemNotFound = errors.New("queue item not found")

	// ErrNotRetryable indicates a retry was requested for an item that is
	// not in the failed state. Only failed items can be re-queued.
	ErrNotRetryable = errors.New("only failed items can be retried")

	// ErrHistoryUnavailable indicates no history backend is configured.
	ErrHistoryUnavailable = errors.New("job history is not configured")
)
