package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts finished runs by resolved mode and outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_runs_total",
			Help: "Total number of research pipeline runs",
		},
		[]string{"mode", "status"},
	)

	// StageDuration observes the wall time of each pipeline stage
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// StageFailures counts runs aborted at a stage
	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_stage_failures_total",
			Help: "Total number of pipeline runs aborted by a failing stage",
		},
		[]string{"stage"},
	)

	// RenderWarnings counts optional report outputs that were skipped
	RenderWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_render_warnings_total",
			Help: "Total number of skipped HTML or PDF report outputs",
		},
		[]string{"output"},
	)
)
