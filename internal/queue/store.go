package queue

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/trackstudio/trackstudio-api/internal/domain"
)

// ItemUpdate is a partial mutation of a queue item. Nil fields are left
// untouched; set fields are shallow-merged onto the stored item.
type ItemUpdate struct {
	Status   *domain.QueueStatus
	TaskID   *string
	Progress *int
	Error    *string
}

// Store holds the queue items and the scheduling policy behind a single
// mutex. It is the only shared mutable state of the orchestrator; the
// dispatcher, the completion reconciler, and the retry path are its only
// status writers.
type Store struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*domain.QueueItem
	seq     map[uuid.UUID]uint64
	nextSeq uint64
	config  domain.QueueConfig
	logger  *slog.Logger
}

// NewStore creates an empty queue store with the default policy.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		items:  make(map[uuid.UUID]*domain.QueueItem),
		seq:    make(map[uuid.UUID]uint64),
		config: domain.DefaultQueueConfig(),
		logger: logger.With(slog.String("component", "queue_store")),
	}
}

// Enqueue constructs a new pending item from the params snapshot and
// inserts it. It never blocks and has no side effect beyond insertion.
func (s *Store) Enqueue(params domain.GenerationParams, projectID string) (domain.QueueItem, error) {
	item, err := domain.NewQueueItem(params, projectID)
	if err != nil {
		return domain.QueueItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item
	s.seq[item.ID] = s.nextSeq
	s.nextSeq++

	s.logger.Debug("item enqueued",
		"item_id", item.ID,
		"project_id", item.ProjectID)

	return *item, nil
}

// EnqueueVariations expands one logical request into n independent sibling
// items sharing the same params snapshot, each stamped with a 1-based
// variation index and the shared total. n is clamped to [1, MaxVariations].
func (s *Store) EnqueueVariations(params domain.GenerationParams, projectID string, n int) ([]domain.QueueItem, error) {
	if n < 1 {
		n = 1
	}
	if n > domain.MaxVariations {
		n = domain.MaxVariations
	}

	items := make([]domain.QueueItem, 0, n)
	for i := 0; i < n; i++ {
		item, err := domain.NewQueueItem(params, projectID)
		if err != nil {
			return nil, err
		}
		item.VariationIndex = i + 1
		item.VariationTotal = n

		s.mu.Lock()
		s.items[item.ID] = item
		s.seq[item.ID] = s.nextSeq
		s.nextSeq++
		s.mu.Unlock()

		items = append(items, *item)
	}

	s.logger.Debug("variations enqueued",
		"project_id", projectID,
		"count", n)

	return items, nil
}

// UpdateItem shallow-merges the given fields onto the item. Unknown IDs
// are a silent no-op, since completion events may race with external item
// removal. Status changes that would move backwards through the state
// machine are dropped wholesale, as is any attempt to reassign an already
// bound task ID.
func (s *Store) UpdateItem(id uuid.UUID, update ItemUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return false
	}

	if update.Status != nil && !item.Status.CanTransition(*update.Status) {
		s.logger.Debug("dropping invalid status transition",
			"item_id", id,
			"from", item.Status,
			"to", *update.Status)
		return false
	}

	if update.Status != nil {
		item.Status = *update.Status
	}
	if update.TaskID != nil && item.TaskID == "" {
		item.TaskID = *update.TaskID
	}
	if update.Progress != nil {
		item.Progress = clampProgress(*update.Progress)
	}
	if update.Error != nil {
		item.Error = *update.Error
	}

	return true
}

// RetryItem resets a failed item to pending, clearing its error, task ID
// and progress while preserving its ID and params snapshot. Retrying an
// item in any other status is a no-op, which makes concurrent retries of
// the same item collapse into a single transition.
func (s *Store) RetryItem(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok || item.Status != domain.QueueStatusFailed {
		return false
	}

	item.Status = domain.QueueStatusPending
	item.TaskID = ""
	item.Progress = 0
	item.Error = ""

	s.logger.Debug("item reset for retry", "item_id", id)
	return true
}

// ListPending returns the pending items of a project ordered by CreatedAt
// ascending, with insertion order breaking timestamp ties.
func (s *Store) ListPending(projectID string) []domain.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []domain.QueueItem
	for _, item := range s.items {
		if item.ProjectID == projectID && item.Status == domain.QueueStatusPending {
			pending = append(pending, *item)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return s.seq[pending[i].ID] < s.seq[pending[j].ID]
	})

	return pending
}

// CountRunning returns the number of running items within a project.
func (s *Store) CountRunning(projectID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		if item.ProjectID == projectID && item.Status == domain.QueueStatusRunning {
			count++
		}
	}
	return count
}

// Get returns a copy of the item with the given ID.
func (s *Store) Get(id uuid.UUID) (domain.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return domain.QueueItem{}, false
	}
	return *item, true
}

// FindByTask returns the item whose task ID equals taskID. At most one
// item matches because task IDs are bound at most once.
func (s *Store) FindByTask(taskID string) (domain.QueueItem, bool) {
	if taskID == "" {
		return domain.QueueItem{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.TaskID == taskID {
			return *item, true
		}
	}
	return domain.QueueItem{}, false
}

// List returns all items of a project in insertion order. An empty
// projectID returns every item.
func (s *Store) List(projectID string) []domain.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []domain.QueueItem
	for _, item := range s.items {
		if projectID == "" || item.ProjectID == projectID {
			items = append(items, *item)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return s.seq[items[i].ID] < s.seq[items[j].ID]
	})

	return items
}

// Config returns the current scheduling policy.
func (s *Store) Config() domain.QueueConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// SetConfig replaces the scheduling policy.
func (s *Store) SetConfig(cfg domain.QueueConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	return nil
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
