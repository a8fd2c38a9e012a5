package scheduler

import (
	"sync"

	"github.com/trackstudio/trackstudio-api/internal/domain"
)

// SchedulingScope is the named policy for which project the dispatcher
// services. Only the active project is scheduled; items queued under
// inactive projects stay pending until their project becomes active.
//
// This is an intentional limitation carried over from the product design:
// inactive projects starve. Switching the active project never cancels or
// reorders another project's items, it merely stops advancing them.
type SchedulingScope struct {
	mu              sync.RWMutex
	activeProjectID string
}

// NewSchedulingScope creates a scope servicing the given project, falling
// back to the default project when none is named.
func NewSchedulingScope(projectID string) *SchedulingScope {
	if projectID == "" {
		projectID = domain.DefaultProjectID
	}
	return &SchedulingScope{activeProjectID: projectID}
}

// ActiveProject returns the project currently eligible for dispatch.
func (s *SchedulingScope) ActiveProject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeProjectID
}

// SetActiveProject switches dispatch to the given project.
func (s *SchedulingScope) SetActiveProject(projectID string) error {
	if projectID == "" {
		return domain.ErrEmptyProjectID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeProjectID = projectID
	return nil
}
