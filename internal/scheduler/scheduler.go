package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/generation"
	"github.com/trackstudio/trackstudio-api/internal/queue"
)

// CreditHooks lets the caller observe credit-related outcomes of
// submissions. OnInsufficient fires exactly once per item whose submission
// was refused for lack of credits; OnBalance fires whenever the provider
// reports a balance alongside an accepted submission. Either hook may be
// nil.
type CreditHooks struct {
	OnInsufficient func(item domain.QueueItem)
	OnBalance      func(balance float64)
}

// Scheduler is the dispatcher of the generation queue. It is
// level-triggered: OnStateChanged may be invoked redundantly on any state
// change and has no observable side effect when no capacity is available.
//
// The read-decide-mutate sequence runs under a single mutex, so concurrent
// triggers cannot both observe the same capacity. Items are flipped to
// running before the provider call is issued; the status flip itself is
// the guard against double-dispatch.
type Scheduler struct {
	mu     sync.Mutex
	store  *queue.Store
	jobs   *queue.JobRegistry
	binder *queue.TaskBinder
	client generation.Client
	scope  *SchedulingScope
	hooks  CreditHooks
	logger *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewScheduler creates a Scheduler over the given queue state and
// generation client.
func NewScheduler(
	store *queue.Store,
	jobs *queue.JobRegistry,
	binder *queue.TaskBinder,
	client generation.Client,
	scope *SchedulingScope,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		store:      store,
		jobs:       jobs,
		binder:     binder,
		client:     client,
		scope:      scope,
		logger:     logger.With(slog.String("component", "scheduler")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// SetCreditHooks installs the credit observation hooks. Must be called
// before the first dispatch.
func (s *Scheduler) SetCreditHooks(hooks CreditHooks) {
	s.hooks = hooks
}

// OnStateChanged runs one dispatch cycle for the active project. It is
// safe to call from any goroutine, at any time, as often as state changes
// warrant:
//
//  1. If autoRun is off, nothing happens.
//  2. Capacity is maxConcurrency minus the project's running items.
//  3. Up to capacity pending items are taken in FIFO order and flipped to
//     running synchronously, before any external call.
//  4. Each selected item is submitted to the provider asynchronously; the
//     result arrives later through the completion event path or the
//     submission failure path.
func (s *Scheduler) OnStateChanged() {
	s.mu.Lock()

	cfg := s.store.Config()
	if !cfg.AutoRun {
		s.mu.Unlock()
		return
	}

	projectID := s.scope.ActiveProject()
	capacity := cfg.MaxConcurrency - s.store.CountRunning(projectID)
	if capacity <= 0 {
		s.mu.Unlock()
		return
	}

	pending := s.store.ListPending(projectID)
	if len(pending) > capacity {
		pending = pending[:capacity]
	}

	running := domain.QueueStatusRunning
	zero := 0
	var selected []domain.QueueItem
	for _, item := range pending {
		// Flipping to running here, under the scheduler mutex and before
		// the provider call, is what prevents a concurrent trigger from
		// re-selecting the same item.
		if s.store.UpdateItem(item.ID, queue.ItemUpdate{
			Status:   &running,
			Progress: &zero,
		}) {
			selected = append(selected, item)
		}
	}
	s.mu.Unlock()

	for _, item := range selected {
		s.logger.Info("dispatching item",
			"item_id", item.ID,
			"project_id", item.ProjectID)

		s.wg.Add(1)
		go s.submit(item)
	}
}

// Stop waits for in-flight submissions to settle. Pending items stay
// pending; there is no cancellation of running provider tasks.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	s.wg.Wait()
}

// submit performs the provider call for one dispatched item and applies
// the synchronous outcome. Asynchronous completion arrives separately via
// the reconciler.
func (s *Scheduler) submit(item domain.QueueItem) {
	defer s.wg.Done()

	logger := s.logger.With(
		"item_id", item.ID,
		"project_id", item.ProjectID,
	)

	result, err := s.client.Submit(s.ctx, item.Params)
	if err != nil {
		if errors.Is(err, generation.ErrInsufficientCredits) && s.hooks.OnInsufficient != nil {
			s.hooks.OnInsufficient(item)
		}

		failed := domain.QueueStatusFailed
		msg := err.Error()
		s.store.UpdateItem(item.ID, queue.ItemUpdate{
			Status: &failed,
			Error:  &msg,
		})
		logger.Error("submission failed", "error", err)

		// The failed item freed a running slot.
		s.OnStateChanged()
		return
	}

	if result == nil || result.TaskID == "" {
		failed := domain.QueueStatusFailed
		msg := generation.ErrInvalidResponse.Error()
		s.store.UpdateItem(item.ID, queue.ItemUpdate{
			Status: &failed,
			Error:  &msg,
		})
		logger.Error("submission returned no task ID")
		s.OnStateChanged()
		return
	}

	s.binder.Bind(result.TaskID, item.ProjectID)

	job, err := domain.NewJob(result.TaskID, item.ProjectID, item.Params)
	if err != nil {
		logger.Error("failed to build job record", "error", err)
	} else if err := s.jobs.Upsert(*job); err != nil {
		logger.Error("failed to record job", "error", err)
	}

	s.store.UpdateItem(item.ID, queue.ItemUpdate{TaskID: &result.TaskID})

	if result.CreditsBalance != nil && s.hooks.OnBalance != nil {
		s.hooks.OnBalance(*result.CreditsBalance)
	}

	logger.Info("submission accepted", "task_id", result.TaskID)
}
