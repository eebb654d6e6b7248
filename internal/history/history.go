// Package history opens the run history backend selected by a DSN.
package history

import (
	"context"
	"errors"
	"strings"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/storage"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/storage/postgres"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/storage/sqlite"
)

// ErrDisabled is returned by Open for an empty DSN
var ErrDisabled = errors.New("run history disabled")

// Kind reports which backend a DSN selects: "postgres", "sqlite" or "" when disabled
func Kind(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return ""
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	default:
		return "sqlite"
	}
}

// Open returns the backend for dsn.
// postgres:// and postgresql:// use pgx; "sqlite:<path>" or a bare path uses SQLite.
func Open(ctx context.Context, dsn string) (storage.Backend, error) {
	dsn = strings.TrimSpace(dsn)
	switch Kind(dsn) {
	case "":
		return nil, ErrDisabled
	case "postgres":
		return postgres.New(ctx, dsn)
	default:
		return sqlite.New(strings.TrimPrefix(dsn, "sqlite:"))
	}
}
