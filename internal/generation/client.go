package generation

import (
	"context"

	"github.com/trackstudio/trackstudio-api/internal/domain"
)

// TaskStatus is the provider-coarse state of a submitted task after
// normalization. "first" means the provider has produced a first usable
// result but is still working.
type TaskStatus string

// Normalized provider task statuses
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusFirst     TaskStatus = "first"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// SubmitResult is the provider's answer to an accepted submission.
// CreditsBalance is reported by some providers alongside the task ID and
// is nil when absent.
type SubmitResult struct {
	TaskID         string
	CreditsBalance *float64
}

// StatusResult is a snapshot of a task's progress on the provider side.
type StatusResult struct {
	TaskID       string
	Status       TaskStatus
	ErrorMessage string
}

// Client submits generation requests to the external provider. Submit
// returns once the provider has accepted or rejected the request; the
// actual generation completes asynchronously and is observed through
// completion events.
type Client interface {
	Submit(ctx context.Context, params domain.GenerationParams) (*SubmitResult, error)
}

// StatusClient reads the provider-side state of a previously submitted
// task. The status poller uses it to synthesize completion events for
// tasks whose callbacks never arrive.
type StatusClient interface {
	Status(ctx context.Context, taskID string) (*StatusResult, error)
}

// LyricsGenerator produces song lyrics from a free-form prompt and an
// optional style hint. This is a synchronous collaborator, not a queue
// operation.
type LyricsGenerator interface {
	GenerateLyrics(ctx context.Context, prompt, style string) (string, error)
}
