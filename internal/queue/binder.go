package queue

import (
	"log/slog"
	"sync"
)

// TaskBinder maps opaque provider task IDs to the logical project that
// submitted them. Completion events only carry task IDs, so this binding
// is the orchestrator's own record of where a task came from.
type TaskBinder struct {
	mu       sync.RWMutex
	projects map[string]string
	logger   *slog.Logger
}

// NewTaskBinder creates an empty binder.
func NewTaskBinder(logger *slog.Logger) *TaskBinder {
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskBinder{
		projects: make(map[string]string),
		logger:   logger.With(slog.String("component", "task_binder")),
	}
}

// Bind records that taskID belongs to projectID. An existing binding is
// never overwritten; task IDs are bound at most once.
func (b *TaskBinder) Bind(taskID, projectID string) {
	if taskID == "" || projectID == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.projects[taskID]; exists {
		b.logger.Debug("ignoring rebind of task", "task_id", taskID)
		return
	}
	b.projects[taskID] = projectID
}

// Project returns the project a task was submitted under.
func (b *TaskBinder) Project(taskID string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	projectID, ok := b.projects[taskID]
	return projectID, ok
}
