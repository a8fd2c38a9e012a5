package scheduler

import (
	"context"
	"log/slog"

	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/events"
	"github.com/trackstudio/trackstudio-api/internal/generation"
	"github.com/trackstudio/trackstudio-api/internal/queue"
	"github.com/trackstudio/trackstudio-api/internal/store"
)

// DispatchTrigger is the slice of the scheduler the reconciler needs: a
// way to announce that queue state changed.
type DispatchTrigger interface {
	OnStateChanged()
}

// Reconciler consumes completion and progress events and applies them to
// the matching job record and queue item. Events are keyed by provider
// task ID; an event whose task ID matches nothing is dropped silently,
// since the item may have been removed upstream.
type Reconciler struct {
	store   *queue.Store
	jobs    *queue.JobRegistry
	trigger DispatchTrigger
	history store.HistoryStore
	logger  *slog.Logger
}

// NewReconciler creates a Reconciler. history may be nil, in which case
// terminal jobs are not archived.
func NewReconciler(
	queueStore *queue.Store,
	jobs *queue.JobRegistry,
	trigger DispatchTrigger,
	history store.HistoryStore,
	logger *slog.Logger,
) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		store:   queueStore,
		jobs:    jobs,
		trigger: trigger,
		history: history,
		logger:  logger.With(slog.String("component", "reconciler")),
	}
}

// HandleEvent applies one completion event: the provider-coarse status is
// mapped onto the job lifecycle (completed -> done, failed -> failed,
// anything else -> running), the job record is updated by task ID, and the
// same status and progress land on the queue item correlated by task ID.
func (r *Reconciler) HandleEvent(ctx context.Context, event *events.CompletionEvent) error {
	if event == nil || event.TaskID == "" {
		return nil
	}

	status := mapEventStatus(event.Status)
	progress := event.Progress
	if status == domain.QueueStatusDone {
		progress = 100
	} else if status == domain.QueueStatusRunning {
		// Callbacks carry no numeric progress; never let a sparse payload
		// rewind an estimate the poller already published.
		if job, ok := r.jobs.Get(event.TaskID); ok && job.Progress > progress {
			progress = job.Progress
		}
	}

	logger := r.logger.With(
		"task_id", event.TaskID,
		"status", status,
	)

	if !r.jobs.Update(event.TaskID, queue.JobUpdate{
		Status:   &status,
		Progress: &progress,
	}) {
		logger.Debug("event for unknown job")
	}

	item, ok := r.store.FindByTask(event.TaskID)
	if !ok {
		// The item may have been evicted externally; not an error.
		logger.Debug("event matched no queue item, dropping")
		return nil
	}

	update := queue.ItemUpdate{
		Status:   &status,
		Progress: &progress,
	}
	if status == domain.QueueStatusFailed {
		msg := event.ErrorMessage
		if msg == "" {
			msg = "generation failed"
		}
		update.Error = &msg
	}
	r.store.UpdateItem(item.ID, update)

	if status.Terminal() {
		logger.Info("item reached terminal status", "item_id", item.ID)
		r.archive(ctx, event.TaskID)
		// A finished item frees a running slot for the next pending one.
		r.trigger.OnStateChanged()
	}

	return nil
}

// archive persists the terminal job to the history store, if configured.
// Archival failures are logged and swallowed; history is best-effort.
func (r *Reconciler) archive(ctx context.Context, taskID string) {
	if r.history == nil {
		return
	}

	job, ok := r.jobs.Get(taskID)
	if !ok {
		return
	}

	if err := r.history.SaveJob(ctx, job); err != nil {
		r.logger.Error("failed to archive job",
			"task_id", taskID,
			"error", err)
	}
}

// mapEventStatus maps the provider-coarse event status onto the item
// state machine.
func mapEventStatus(status generation.TaskStatus) domain.QueueStatus {
	switch status {
	case generation.TaskStatusCompleted:
		return domain.QueueStatusDone
	case generation.TaskStatusFailed:
		return domain.QueueStatusFailed
	default:
		return domain.QueueStatusRunning
	}
}

// Ensure Reconciler implements events.Handler
var _ events.Handler = (*Reconciler)(nil)
