package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/generation"
	"github.com/trackstudio/trackstudio-api/internal/queue"
	"github.com/trackstudio/trackstudio-api/internal/scheduler"
	"github.com/trackstudio/trackstudio-api/internal/store"
)

// Dispatcher is the level-triggered scheduler entry point. The service
// pokes it after every mutation that could free or fill a slot.
type Dispatcher interface {
	OnStateChanged()
}

// ScopeSetter switches which project the dispatcher draws work from.
type ScopeSetter interface {
	ActiveProject() string
	SetActiveProject(projectID string) error
}

// QueueService provides the queue operations exposed over the API.
type QueueService struct {
	store      *queue.Store
	jobs       *queue.JobRegistry
	dispatcher Dispatcher
	scope      ScopeSetter
	history    store.HistoryStore
	logger     *slog.Logger

	// creditMu guards the enqueue credit gate. The gate closes when a
	// submission is refused for lack of credits and reopens when the
	// provider reports a positive balance again.
	creditMu        sync.Mutex
	creditExhausted bool
}

// NewQueueService creates the service over the shared queue state. The
// history store may be nil when no database is configured.
func NewQueueService(
	queueStore *queue.Store,
	jobs *queue.JobRegistry,
	dispatcher Dispatcher,
	scope ScopeSetter,
	history store.HistoryStore,
	logger *slog.Logger,
) *QueueService {
	if logger == nil {
		logger = slog.Default()
	}

	return &QueueService{
		store:      queueStore,
		jobs:       jobs,
		dispatcher: dispatcher,
		scope:      scope,
		history:    history,
		logger:     logger.With(slog.String("component", "queue_service")),
	}
}

// CreditHooks returns the hooks that keep the enqueue gate in sync with
// submission outcomes. They are installed on the scheduler at wiring time.
func (s *QueueService) CreditHooks() scheduler.CreditHooks {
	return scheduler.CreditHooks{
		OnInsufficient: func(item domain.QueueItem) {
			s.creditMu.Lock()
			defer s.creditMu.Unlock()
			if !s.creditExhausted {
				s.creditExhausted = true
				s.logger.Warn("credit gate closed",
					slog.String("item_id", item.ID.String()),
					slog.String("project_id", item.ProjectID))
			}
		},
		OnBalance: func(balance float64) {
			s.creditMu.Lock()
			defer s.creditMu.Unlock()
			if s.creditExhausted && balance > 0 {
				s.creditExhausted = false
				s.logger.Info("credit gate reopened",
					slog.Float64("balance", balance))
			}
		},
	}
}

// CreditsExhausted reports whether the enqueue gate is currently closed.
func (s *QueueService) CreditsExhausted() bool {
	s.creditMu.Lock()
	defer s.creditMu.Unlock()
	return s.creditExhausted
}

// Enqueue validates the params and appends one item per requested
// variation, then pokes the dispatcher. The variation count is clamped to
// the allowed range; callers asking for 1 get a single item without
// variation markers.
//
// When the credit gate is closed the request fails fast with
// generation.ErrInsufficientCredits instead of queueing work that would
// only fail at submission.
func (s *QueueService) Enqueue(
	ctx context.Context,
	params domain.GenerationParams,
	projectID string,
	variations int,
) ([]domain.QueueItem, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if s.CreditsExhausted() {
		return nil, generation.ErrInsufficientCredits
	}

	items, err := s.store.EnqueueVariations(params, projectID, variations)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "enqueued generation request",
		slog.String("project_id", items[0].ProjectID),
		slog.Int("variations", len(items)))

	s.dispatcher.OnStateChanged()
	return items, nil
}

// Retry re-queues a failed item with its original params snapshot.
func (s *QueueService) Retry(ctx context.Context, id uuid.UUID) (domain.QueueItem, error) {
	if _, ok := s.store.Get(id); !ok {
		return domain.QueueItem{}, ErrItemNotFound
	}

	if !s.store.RetryItem(id) {
		return domain.QueueItem{}, ErrNotRetryable
	}

	item, _ := s.store.Get(id)

	s.logger.InfoContext(ctx, "item re-queued for retry",
		slog.String("item_id", id.String()),
		slog.String("project_id", item.ProjectID))

	s.dispatcher.OnStateChanged()
	return item, nil
}

// Items returns the queue items of a project in enqueue order. An empty
// projectID returns everything.
func (s *QueueService) Items(projectID string) []domain.QueueItem {
	return s.store.List(projectID)
}

// Item returns one queue item by ID.
func (s *QueueService) Item(id uuid.UUID) (domain.QueueItem, error) {
	item, ok := s.store.Get(id)
	if !ok {
		return domain.QueueItem{}, ErrItemNotFound
	}
	return item, nil
}

// Jobs returns the provider-side job records of a project.
func (s *QueueService) Jobs(projectID string) []domain.Job {
	return s.jobs.List(projectID)
}

// Config returns the current scheduling policy.
func (s *QueueService) Config() domain.QueueConfig {
	return s.store.Config()
}

// SetConfig replaces the scheduling policy and pokes the dispatcher, so
// raising maxConcurrency or enabling autoRun takes effect immediately.
func (s *QueueService) SetConfig(ctx context.Context, cfg domain.QueueConfig) error {
	if err := s.store.SetConfig(cfg); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "queue config updated",
		slog.Bool("auto_run", cfg.AutoRun),
		slog.Int("max_concurrency", cfg.MaxConcurrency))

	s.dispatcher.OnStateChanged()
	return nil
}

// ActiveProject returns the project the dispatcher currently serves.
func (s *QueueService) ActiveProject() string {
	return s.scope.ActiveProject()
}

// SetActiveProject switches the dispatcher to another project and pokes
// it, so the new project's pending items are picked up as slots allow.
// Running items of the previous project are unaffected.
func (s *QueueService) SetActiveProject(ctx context.Context, projectID string) error {
	if err := s.scope.SetActiveProject(projectID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "active project switched",
		slog.String("project_id", projectID))

	s.dispatcher.OnStateChanged()
	return nil
}

// History returns the archived terminal jobs of a project, newest first.
func (s *QueueService) History(ctx context.Context, projectID string, limit int) ([]domain.Job, error) {
	if s.history == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.history.ListRecent(ctx, projectID, limit)
}
