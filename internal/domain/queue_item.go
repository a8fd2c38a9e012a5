package domain

import (
	"time"

	"github.com/google/uuid"
)

// QueueStatus represents the scheduling state of a queue item
type QueueStatus string

// Possible queue item status values
const (
	QueueStatusPending QueueStatus = "pending"
	QueueStatusRunning QueueStatus = "running"
	QueueStatusDone    QueueStatus = "done"
	QueueStatusFailed  QueueStatus = "failed"
)

// DefaultProjectID is the project namespace used when a caller does not
// name one explicitly.
const DefaultProjectID = "project_default"

// MaxVariations caps how many sibling items a single logical request may
// fan out into.
const MaxVariations = 8

// QueueItem represents one user-submitted generation request awaiting or
// undergoing processing. Items are created pending, flipped to running by
// the dispatcher, and finished by the completion reconciler.
//
// Params is a write-once snapshot; TaskID is set at most once, after the
// provider accepts the submission.
type QueueItem struct {
	ID             uuid.UUID        `json:"id"`
	ProjectID      string           `json:"project_id"`
	Status         QueueStatus      `json:"status"`
	Params         GenerationParams `json:"params"`
	TaskID         string           `json:"task_id,omitempty"`
	Progress       int              `json:"progress"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	VariationIndex int              `json:"variation_index,omitempty"`
	VariationTotal int              `json:"variation_total,omitempty"`
}

// NewQueueItem creates a pending queue item for the given project with a
// fresh ID and the current timestamp. The params are copied by value, so
// later changes to the caller's struct do not affect the snapshot.
func NewQueueItem(params GenerationParams, projectID string) (*QueueItem, error) {
	if projectID == "" {
		return nil, ErrEmptyProjectID
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &QueueItem{
		ID:        uuid.New(),
		ProjectID: projectID,
		Status:    QueueStatusPending,
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Terminal reports whether the status is an end state of the lifecycle.
// Failed items are terminal unless explicitly retried.
func (s QueueStatus) Terminal() bool {
	return s == QueueStatusDone || s == QueueStatusFailed
}

// CanTransition reports whether moving from s to next follows the item
// state machine: pending -> running -> {done | failed}, plus
// failed -> pending via explicit retry. Self-transitions are allowed so
// progress updates can reuse the same status.
func (s QueueStatus) CanTransition(next QueueStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case QueueStatusPending:
		return next == QueueStatusRunning || next == QueueStatusFailed
	case QueueStatusRunning:
		return next == QueueStatusDone || next == QueueStatusFailed
	case QueueStatusFailed:
		return next == QueueStatusPending
	default:
		return false
	}
}

// isValidQueueStatus checks if the given status is a recognized QueueStatus.
func isValidQueueStatus(status QueueStatus) bool {
	switch status {
	case QueueStatusPending, QueueStatusRunning, QueueStatusDone, QueueStatusFailed:
		return true
	default:
		return false
	}
}

// Validate checks if the QueueItem has valid data.
func (q *QueueItem) Validate() error {
	if q.ID == uuid.Nil {
		return ErrInvalidID
	}
	if q.ProjectID == "" {
		return ErrEmptyProjectID
	}
	if !isValidQueueStatus(q.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// QueueConfig is the process-wide scheduling policy. AutoRun gates the
// dispatcher entirely; MaxConcurrency bounds running items per active
// project, not globally.
type QueueConfig struct {
	AutoRun        bool `json:"auto_run"`
	MaxConcurrency int  `json:"max_concurrency"`
}

// DefaultQueueConfig returns the policy the queue starts with.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		AutoRun:        true,
		MaxConcurrency: 1,
	}
}

// Validate checks the queue policy.
func (c QueueConfig) Validate() error {
	if c.MaxConcurrency < 1 {
		return ErrInvalidConcurrency
	}
	return nil
}

// Project is a logical namespace under which concurrency limits and FIFO
// ordering are scoped.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
