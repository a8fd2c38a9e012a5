package domain

import (
	"errors"
	"time"
)

// Common validation errors for Job
var (
	ErrEmptyTaskID = errors.New("task ID cannot be empty")
)

// Job is the provider-side tracking record for an accepted submission.
// It is keyed by the opaque task ID the provider returned, not by the
// originating queue item's ID: completion events arrive keyed by task ID,
// so the two records are correlated by TaskID and kept independently.
type Job struct {
	TaskID    string           `json:"task_id"`
	ProjectID string           `json:"project_id"`
	Status    QueueStatus      `json:"status"`
	Progress  int              `json:"progress"`
	Params    GenerationParams `json:"params"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewJob creates a running job record for a freshly accepted submission.
func NewJob(taskID, projectID string, params GenerationParams) (*Job, error) {
	if taskID == "" {
		return nil, ErrEmptyTaskID
	}
	if projectID == "" {
		return nil, ErrEmptyProjectID
	}

	return &Job{
		TaskID:    taskID,
		ProjectID: projectID,
		Status:    QueueStatusRunning,
		Progress:  0,
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Validate checks if the Job has valid data.
func (j *Job) Validate() error {
	if j.TaskID == "" {
		return ErrEmptyTaskID
	}
	if j.ProjectID == "" {
		return ErrEmptyProjectID
	}
	if !isValidQueueStatus(j.Status) {
		return ErrInvalidStatus
	}
	return nil
}
