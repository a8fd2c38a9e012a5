package queue

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/trackstudio/trackstudio-api/internal/domain"
)

// JobUpdate is a partial mutation of a job record.
type JobUpdate struct {
	Status   *domain.QueueStatus
	Progress *int
}

// JobRegistry holds the provider-side job records, keyed by task ID. Job
// records are kept independently of queue items because completion events
// arrive keyed by task ID, not by queue identity.
type JobRegistry struct {
	mu      sync.Mutex
	jobs    map[string]*domain.Job
	seq     map[string]uint64
	nextSeq uint64
	logger  *slog.Logger
}

// NewJobRegistry creates an empty registry.
func NewJobRegistry(logger *slog.Logger) *JobRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	return &JobRegistry{
		jobs:   make(map[string]*domain.Job),
		seq:    make(map[string]uint64),
		logger: logger.With(slog.String("component", "job_registry")),
	}
}

// Upsert inserts the job or merges it onto an existing record with the
// same task ID.
func (r *JobRegistry) Upsert(job domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[job.TaskID]; ok {
		existing.Status = job.Status
		existing.Progress = clampProgress(job.Progress)
		return nil
	}

	stored := job
	r.jobs[job.TaskID] = &stored
	r.seq[job.TaskID] = r.nextSeq
	r.nextSeq++
	return nil
}

// Update applies a partial mutation to the job with the given task ID.
// Unknown task IDs are a silent no-op.
func (r *JobRegistry) Update(taskID string, update JobUpdate) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[taskID]
	if !ok {
		return false
	}

	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.Progress != nil {
		job.Progress = clampProgress(*update.Progress)
	}
	return true
}

// Get returns a copy of the job with the given task ID.
func (r *JobRegistry) Get(taskID string) (domain.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[taskID]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// List returns the jobs of a project in insertion order. An empty
// projectID returns every job.
func (r *JobRegistry) List(projectID string) []domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	var jobs []domain.Job
	for _, job := range r.jobs {
		if projectID == "" || job.ProjectID == projectID {
			jobs = append(jobs, *job)
		}
	}

	sort.Slice(jobs, func(i, j int) bool {
		return r.seq[jobs[i].TaskID] < r.seq[jobs[j].TaskID]
	})

	return jobs
}
