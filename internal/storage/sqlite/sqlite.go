// Package sqlite stores run history in a SQLite file using the pure Go driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS research_runs (
	id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	objective TEXT NOT NULL,
	depth TEXT NOT NULL,
	status TEXT NOT NULL,
	stage TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	report_file TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS research_runs_created_at ON research_runs (created_at DESC);
`

// New opens (and creates if needed) the database at dsn
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) SaveRun(ctx context.Context, run *storage.RunRecord) error {
	query := `
	INSERT INTO research_runs (
		id, mode, objective, depth, status, stage, error, report_file, created_at, duration_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := b.db.ExecContext(ctx, query,
		run.ID,
		run.Mode,
		run.Objective,
		run.Depth,
		run.Status,
		run.Stage,
		run.Error,
		run.ReportFile,
		run.CreatedAt.UTC(),
		run.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func (b *sqliteBackend) ListRuns(ctx context.Context, limit int) ([]*storage.RunRecord, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, mode, objective, depth, status, stage, error, report_file, created_at, duration_ms
		 FROM research_runs ORDER BY created_at DESC LIMIT ?`,
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

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
