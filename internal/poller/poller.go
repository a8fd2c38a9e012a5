package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/events"
	"github.com/trackstudio/trackstudio-api/internal/generation"
	"github.com/trackstudio/trackstudio-api/internal/queue"
)

// Default poller timings, used when the config leaves them zero.
const (
	DefaultInterval          = 5 * time.Second
	DefaultEstimatedDuration = time.Minute
)

// maxEstimatedProgress caps synthesized progress so a task never looks
// finished before the provider says so.
const maxEstimatedProgress = 99

// Config holds the poller timings.
type Config struct {
	// Interval is how often outstanding tasks are queried.
	Interval time.Duration

	// EstimatedDuration is the assumed wall time of one generation. The
	// provider reports no numeric progress, so progress is estimated from
	// the task's age against this duration.
	EstimatedDuration time.Duration
}

// StatusPoller drives the polling loop. It owns no queue state; it only
// reads the job registry and emits completion events.
type StatusPoller struct {
	jobs      *queue.JobRegistry
	client    generation.StatusClient
	emitter   events.Emitter
	interval  time.Duration
	estimated time.Duration
	logger    *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a StatusPoller. Zero timings fall back to defaults.
func New(
	jobs *queue.JobRegistry,
	client generation.StatusClient,
	emitter events.Emitter,
	cfg Config,
	logger *slog.Logger,
) *StatusPoller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.EstimatedDuration <= 0 {
		cfg.EstimatedDuration = DefaultEstimatedDuration
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &StatusPoller{
		jobs:       jobs,
		client:     client,
		emitter:    emitter,
		interval:   cfg.Interval,
		estimated:  cfg.EstimatedDuration,
		logger:     logger.With(slog.String("component", "status_poller")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the polling loop in a background goroutine.
func (p *StatusPoller) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (p *StatusPoller) Stop() {
	p.cancelFunc()
	p.wg.Wait()
}

func (p *StatusPoller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(p.ctx)
		}
	}
}

// pollOnce queries every running job once and emits an event per answer.
// Individual lookup failures are logged and skipped; the next tick retries
// them anyway.
func (p *StatusPoller) pollOnce(ctx context.Context) {
	for _, job := range p.jobs.List("") {
		if job.Status != domain.QueueStatusRunning {
			continue
		}

		result, err := p.client.Status(ctx, job.TaskID)
		if err != nil {
			p.logger.Warn("status poll failed",
				slog.String("task_id", job.TaskID),
				slog.String("error", err.Error()))
			continue
		}

		event := events.NewCompletionEvent(job.TaskID, result.Status, p.progressFor(job, result.Status))
		event.ErrorMessage = result.ErrorMessage

		if err := p.emitter.Emit(ctx, event); err != nil {
			p.logger.Error("failed to emit completion event",
				slog.String("task_id", job.TaskID),
				slog.String("status", string(result.Status)),
				slog.String("error", err.Error()))
		}
	}
}

// progressFor estimates progress for a task. Terminal statuses pin it;
// everything else scales the task's age against the estimated duration.
func (p *StatusPoller) progressFor(job domain.Job, status generation.TaskStatus) int {
	switch status {
	case generation.TaskStatusCompleted:
		return 100
	case generation.TaskStatusFailed:
		return job.Progress
	}

	elapsed := time.Since(job.CreatedAt)
	estimate := int(elapsed * 100 / p.estimated)
	if estimate > maxEstimatedProgress {
		estimate = maxEstimatedProgress
	}
	if estimate < job.Progress {
		estimate = job.Progress
	}
	return estimate
}
