// Package store persists validation run summaries in PostgreSQL.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/csvcheck/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const createTable = `
CREATE TABLE IF NOT EXISTS validation_runs (
	id          uuid PRIMARY KEY,
	file_name   text        NOT NULL DEFAULT '',
	size_bytes  bigint      NOT NULL,
	client_ip   text        NOT NULL DEFAULT '',
	status      text        NOT NULL,
	error_count integer     NOT NULL,
	duration_ms bigint      NOT NULL,
	created_at  timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS validation_runs_created_at_idx ON validation_runs (created_at DESC);`

const insertRun = `
INSERT INTO validation_runs (id, file_name, size_bytes, client_ip, status, error_count, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const selectRecent = `
SELECT id::text AS id, file_name, size_bytes, client_ip, status, error_count, duration_ms, created_at
FROM validation_runs
ORDER BY created_at DESC
LIMIT $1`

// Postgres is a core.RunRecorder backed by the validation_runs table.
type Postgres struct {
	db DB
}

var _ core.RunRecorder = (*Postgres)(nil)

// NewPostgres ensures the validation_runs table exists.
func NewPostgres(ctx context.Context, db DB) (*Postgres, error) {
	if _, err := db.Exec(ctx, createTable); err != nil {
		return nil, fmt.Errorf("create validation_runs: %w", err)
	}
	return &Postgres{db: db}, nil
}

// RecordRun inserts one run summary.
func (p *Postgres) RecordRun(ctx context.Context, run core.RunSummary) error {
	_, err := p.db.Exec(ctx, insertRun,
		run.ID,
		run.FileName,
		run.SizeBytes,
		run.ClientIP,
		run.Status,
		run.ErrorCount,
		run.DurationMS,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit summaries, newest first.
func (p *Postgres) RecentRuns(ctx context.Context, limit int) ([]core.RunSummary, error) {
	rows, err := p.db.Query(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, pgx.RowToStructByName[core.RunSummary])
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}
