package events

import (
	"context"
	"time"

	"github.com/trackstudio/trackstudio-api/internal/generation"
)

// CompletionEvent reports the provider-side state of one task. Events are
// keyed by the opaque provider task ID; producers never know about queue
// identities.
type CompletionEvent struct {
	// TaskID identifies the provider task the event belongs to.
	TaskID string `json:"task_id"`

	// Status is the normalized provider-coarse status.
	Status generation.TaskStatus `json:"status"`

	// Progress is a 0-100 estimate of how far along the task is.
	Progress int `json:"progress"`

	// ErrorMessage carries the provider's failure reason when Status is
	// failed.
	ErrorMessage string `json:"error_message,omitempty"`

	// ReceivedAt is the timestamp when the event entered the system.
	ReceivedAt time.Time `json:"received_at"`
}

// NewCompletionEvent creates a CompletionEvent stamped with the current time.
func NewCompletionEvent(taskID string, status generation.TaskStatus, progress int) *CompletionEvent {
	return &CompletionEvent{
		TaskID:     taskID,
		Status:     status,
		Progress:   progress,
		ReceivedAt: time.Now().UTC(),
	}
}

// Handler defines an interface for components that can handle completion
// events. Handlers are responsible for processing events and taking
// appropriate actions.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *CompletionEvent) error
}

// Emitter defines an interface for components that can emit completion
// events. This allows producers to publish events without direct knowledge
// of handlers.
type Emitter interface {
	// Emit publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	Emit(ctx context.Context, event *CompletionEvent) error
}
