// Package postgres stores run history in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS research_runs (
	id UUID PRIMARY KEY,
	mode TEXT NOT NULL,
	objective TEXT NOT NULL,
	depth TEXT NOT NULL,
	status TEXT NOT NULL,
	stage TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	report_file TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS research_runs_created_at ON research_runs (created_at DESC);
`

// New connects to the database and creates the schema
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) SaveRun(ctx context.Context, run *storage.RunRecord) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO research_runs (
			id, mode, objective, depth, status, stage, error, report_file, created_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID,
		run.Mode,
		run.Objective,
		run.Depth,
		run.Status,
		run.Stage,
		run.Error,
		run.ReportFile,
		run.CreatedAt,
		run.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func (b *postgresBackend) ListRuns(ctx context.Context, limit int) ([]*storage.RunRecord, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT id::text, mode, objective, depth, status, stage, error, report_file, created_at, duration_ms
		 FROM research_runs ORDER BY created_at DESC LIMIT $1`,
		storage.Limit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*storage.RunRecord{}
	for rows.Next() {
		var r storage.RunRecord
		err := rows.Scan(
			&r.ID, &r.Mode, &r.Objective, &r.Depth, &r.Status, &r.Stage,
			&r.Error, &r.ReportFile, &r.CreatedAt, &r.DurationMS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
