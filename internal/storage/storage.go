// Package storage defines the run history backend. Implementations live in
// the sqlite and postgres subpackages.
package storage

import (
	"context"
	"time"
)

// Run statuses
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DefaultListLimit is used when a non-positive limit is requested
const DefaultListLimit = 20

// RunRecord is one finished pipeline run
type RunRecord struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	Objective  string    `json:"objective"`
	Depth      string    `json:"depth"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage,omitempty"` // stage that failed
	Error      string    `json:"error,omitempty"`
	ReportFile string    `json:"report_file,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	DurationMS int64     `json:"duration_ms"`
}

// Backend stores and lists run records
type Backend interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)
	Close() error
}

// Limit normalizes a requested list size
func Limit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}
