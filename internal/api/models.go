package api

import (
	"github.com/trackstudio/trackstudio-api/internal/domain"
)

// EnqueueRequest is the payload for creating queue items. Variations
// above 1 fan out into that many items sharing one params snapshot.
type EnqueueRequest struct {
	Params     domain.GenerationParams `json:"params"`
	ProjectID  string                  `json:"project_id,omitempty"`
	Variations int                     `json:"variations,omitempty" validate:"gte=0,lte=8"`
}

// EnqueueResponse returns the created items in queue order.
type EnqueueResponse struct {
	Items []domain.QueueItem `json:"items"`
}

// QueueListResponse returns the items of a project in enqueue order.
type QueueListResponse struct {
	Items []domain.QueueItem `json:"items"`
}

// QueueConfigRequest is the payload for replacing the scheduling policy.
type QueueConfigRequest struct {
	AutoRun        bool `json:"auto_run"`
	MaxConcurrency int  `json:"max_concurrency" validate:"required,gte=1"`
}

// ActiveProjectRequest is the payload for switching the scheduling scope.
type ActiveProjectRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
}

// ActiveProjectResponse reports the project the dispatcher serves.
type ActiveProjectResponse struct {
	ProjectID string `json:"project_id"`
}

// JobListResponse returns the provider-side job records of a project.
type JobListResponse struct {
	Jobs []domain.Job `json:"jobs"`
}

// LyricsRequest is the payload for generating song lyrics.
type LyricsRequest struct {
	Prompt string `json:"prompt" validate:"required"`
	Style  string `json:"style,omitempty"`
}

// LyricsResponse returns the generated lyrics.
type LyricsResponse struct {
	Lyrics string `json:"lyrics"`
}

// CallbackRequest mirrors the provider's completion webhook envelope.
type CallbackRequest struct {
	Code int          `json:"code"`
	Msg  string       `json:"msg"`
	Data CallbackData `json:"data"`
}

// CallbackData is the useful part of the webhook payload. The provider
// also attaches track metadata, which the orchestrator ignores.
type CallbackData struct {
	CallbackType string `json:"callbackType"`
	TaskID       string `json:"task_id"`
}

// CallbackResponse acknowledges a webhook delivery.
type CallbackResponse struct {
	Received bool `json:"received"`
}
