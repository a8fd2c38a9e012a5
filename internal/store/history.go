package store

import (
	"context"
	"database/sql"

	"github.com/trackstudio/trackstudio-api/internal/domain"
)

// DBTX is an interface that abstracts the database access layer.
// It is implemented by both *sql.DB and *sql.Tx, allowing our code
// to work with either a database connection or a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// HistoryStore archives terminal jobs. The in-memory orchestrator never
// deletes anything itself; history and garbage collection live behind this
// boundary.
// Version: 1.0
type HistoryStore interface {
	// SaveJob persists a terminal job record.
	SaveJob(ctx context.Context, job domain.Job) error

	// ListRecent retrieves the most recent archived jobs of a project,
	// newest first, up to limit.
	ListRecent(ctx context.Context, projectID string, limit int) ([]domain.Job, error)
}
