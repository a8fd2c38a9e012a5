package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/platform/logger"
	"github.com/trackstudio/trackstudio-api/internal/store"
)

// PostgresHistoryStore implements the store.HistoryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresHistoryStore creates a new PostgreSQL implementation of the
// HistoryStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil,
// a default logger will be used.
func NewPostgresHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "history_store")),
	}
}

// Ensure PostgresHistoryStore implements store.HistoryStore interface
var _ store.HistoryStore = (*PostgresHistoryStore)(nil)

// SaveJob implements store.HistoryStore.SaveJob
// It archives a job record, replacing any previous record for the same
// task ID. A reconciliation can deliver more than one terminal event for
// a task, so the write is an upsert rather than a plain insert.
func (s *PostgresHistoryStore) SaveJob(ctx context.Context, job domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("job validation failed during archive",
			slog.String("error", err.Error()),
			slog.String("task_id", job.TaskID))
		return err
	}

	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("%w: encode job params: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO job_history (task_id, project_id, status, progress, params, created_at, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (task_id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			archived_at = EXCLUDED.archived_at
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		job.TaskID,
		job.ProjectID,
		job.Status,
		job.Progress,
		params,
		job.CreatedAt,
		time.Now().UTC(),
	)
	if err != nil {
		log.Error("failed to archive job",
			slog.String("error", err.Error()),
			slog.String("task_id", job.TaskID),
			slog.String("project_id", job.ProjectID))
		return MapError(err)
	}

	log.Debug("job archived",
		slog.String("task_id", job.TaskID),
		slog.String("project_id", job.ProjectID),
		slog.String("status", string(job.Status)))
	return nil
}

// ListRecent implements store.HistoryStore.ListRecent
// It returns the newest archived jobs of a project, most recent first.
func (s *PostgresHistoryStore) ListRecent(ctx context.Context, projectID string, limit int) ([]domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if projectID == "" {
		return nil, fmt.Errorf("%w: project ID cannot be empty", store.ErrInvalidEntity)
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT task_id, project_id, status, progress, params, created_at
		FROM job_history
		WHERE project_id = $1
		ORDER BY archived_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, projectID, limit)
	if err != nil {
		log.Error("failed to list archived jobs",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []domain.Job
	for rows.Next() {
		var job domain.Job
		var status string
		var params []byte

		if err := rows.Scan(
			&job.TaskID,
			&job.ProjectID,
			&status,
			&job.Progress,
			&params,
			&job.CreatedAt,
		); err != nil {
			return nil, MapError(err)
		}

		job.Status = domain.QueueStatus(status)
		if err := json.Unmarshal(params, &job.Params); err != nil {
			return nil, fmt.Errorf("%w: decode job params for task %s: %v",
				store.ErrInvalidEntity, job.TaskID, err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return jobs, nil
}
