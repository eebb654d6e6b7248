// Package pipeline runs a research request through planning, web search,
// analysis and report generation, strictly in that order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/search"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/storage"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// Pipeline stages, in execution order
const (
	StageValidate = "validate"
	StagePlan     = "plan"
	StageSearch   = "search"
	StageAnalyze  = "analyze"
	StageReport   = "report"
)

// URL prefixes of the artifacts referenced in a PipelineResult
const (
	ViewURLPrefix = "/reports/view/"
	PDFURLPrefix  = "/static/reports/"
)

const recordTimeout = 5 * time.Second

// Planner produces the human-readable step list for a request
type Planner interface {
	Plan(ctx context.Context, req types.ResearchRequest) ([]string, error)
}

// Searcher runs one web search query
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error)
}

// Analyzer turns search results into a structured analysis
type Analyzer interface {
	Analyze(ctx context.Context, req types.ResearchRequest, groups []types.ResultGroup) (*types.AnalysisResult, error)
}

// Reporter renders and stores the report for an analysis
type Reporter interface {
	Render(ctx context.Context, req types.ResearchRequest, analysis *types.AnalysisResult) (*types.ReportArtifact, error)
}

// Recorder persists a summary of every finished run
type Recorder interface {
	SaveRun(ctx context.Context, run *storage.RunRecord) error
}

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// StageError wraps the error that aborted a run with the stage it came from.
// The component's typed error stays reachable through errors.As.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options configures an Orchestrator
type Options struct {
	// DefaultDepth fills requests that omit depth
	DefaultDepth types.Depth
	// MaxResults per query for overview requests
	MaxResults int
	// CompareMaxResults per item for compare requests
	CompareMaxResults int
	// Recorder is optional
	Recorder Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// Orchestrator wires the four components together
type Orchestrator struct {
	planner  Planner
	searcher Searcher
	analyzer Analyzer
	reporter Reporter
	opts     Options
	logger   *slog.Logger
}

// New creates an Orchestrator
func New(planner Planner, searcher Searcher, analyzer Analyzer, reporter Reporter, opts Options) *Orchestrator {
	if opts.DefaultDepth == "" {
		opts.DefaultDepth = types.DepthMedium
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	if opts.CompareMaxResults <= 0 {
		opts.CompareMaxResults = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		planner:  planner,
		searcher: searcher,
		analyzer: analyzer,
		reporter: reporter,
		opts:     opts,
		logger:   logger.With("component", "pipeline"),
	}
}

// Run executes the pipeline for req
func (o *Orchestrator) Run(ctx context.Context, req types.ResearchRequest) (*types.PipelineResult, error) {
	return o.RunWithProgress(ctx, req, nil)
}

// RunWithProgress executes the pipeline, reporting each stage to onProgress.
// A Planner, Searcher or Analyzer failure aborts the run before anything is
// written. Missing HTML or PDF output does not fail the run.
func (o *Orchestrator) RunWithProgress(ctx context.Context, req types.ResearchRequest, onProgress ProgressCallback) (*types.PipelineResult, error) {
	run := &runState{
		id:         uuid.New(),
		started:    o.opts.Now(),
		onProgress: onProgress,
	}

	result, err := o.execute(ctx, req, run)

	status := storage.StatusCompleted
	if err != nil {
		status = storage.StatusFailed
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			StageFailures.WithLabelValues(stageErr.Stage).Inc()
		}
		o.logger.Error("research run failed", "run_id", run.id, "error", err)
	}
	RunsTotal.WithLabelValues(modeLabel(run.req), status).Inc()
	o.record(ctx, run, status, err)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// runState carries per-run bookkeeping between stages
type runState struct {
	id         uuid.UUID
	started    time.Time
	req        types.ResearchRequest
	onProgress ProgressCallback
	artifact   *types.ReportArtifact
}

func (o *Orchestrator) execute(ctx context.Context, raw types.ResearchRequest, run *runState) (*types.PipelineResult, error) {
	req, err := o.prepare(raw)
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}
	run.req = req
	logger := o.logger.With("run_id", run.id, "mode", req.Mode)
	logger.Info("research run started", "objective", req.Objective(), "depth", req.Depth)

	var steps []string
	err = o.stage(run, StagePlan, "Planning research steps", func() error {
		steps, err = o.planner.Plan(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	var groups []types.ResultGroup
	err = o.stage(run, StageSearch, "Searching the web for "+req.Objective(), func() error {
		groups, err = o.search(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	var analysis *types.AnalysisResult
	err = o.stage(run, StageAnalyze, fmt.Sprintf("Analyzing %d search results", types.CountResults(groups)), func() error {
		analysis, err = o.analyzer.Analyze(ctx, req, groups)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = o.stage(run, StageReport, "Generating report", func() error {
		run.artifact, err = o.reporter.Render(ctx, req, analysis)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, w := range run.artifact.Warnings {
		RenderWarnings.WithLabelValues(w).Inc()
	}

	logger.Info("research run completed", "report", run.artifact.ReportPath, "duration", time.Since(run.started))
	return buildResult(run, req, steps), nil
}

// prepare fills defaults, validates and resolves custom queries
func (o *Orchestrator) prepare(req types.ResearchRequest) (types.ResearchRequest, error) {
	if req.Depth == "" {
		req.Depth = o.opts.DefaultDepth
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	resolved, err := req.Resolve()
	if err != nil {
		return req, err
	}
	if err := resolved.Validate(); err != nil {
		return req, err
	}
	return resolved, nil
}

// stage emits progress, times fn and tags its error with the stage name
func (o *Orchestrator) stage(run *runState, name, message string, fn func() error) error {
	if run.onProgress != nil {
		run.onProgress(ProgressEvent{Stage: name, Message: message, RunID: run.id.String()})
	}
	start := time.Now()
	err := fn()
	StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		return &StageError{Stage: name, Err: err}
	}
	return nil
}

// search runs the queries for req sequentially. Zero results across all
// queries is reported as unavailable so no ungrounded report is produced.
func (o *Orchestrator) search(ctx context.Context, req types.ResearchRequest) ([]types.ResultGroup, error) {
	var queries []types.ResultGroup
	maxResults := o.opts.MaxResults
	if req.Mode == types.ModeCompare {
		queries = []types.ResultGroup{
			{Label: req.ItemA, Query: req.ItemA},
			{Label: req.ItemB, Query: req.ItemB},
		}
		maxResults = o.opts.CompareMaxResults
	} else {
		queries = []types.ResultGroup{{Label: req.Topic, Query: req.Topic}}
	}

	groups := make([]types.ResultGroup, 0, len(queries))
	for _, q := range queries {
		results, err := o.searcher.Search(ctx, q.Query, maxResults)
		if err != nil {
			return nil, err
		}
		q.Results = results
		groups = append(groups, q)
	}

	if types.CountResults(groups) == 0 {
		provider := ""
		if named, ok := o.searcher.(interface{ Name() string }); ok {
			provider = named.Name()
		}
		return nil, &search.UnavailableError{Provider: provider, Query: req.Objective(), Cause: search.ErrNoResults}
	}
	return groups, nil
}

func (o *Orchestrator) record(ctx context.Context, run *runState, status string, runErr error) {
	if o.opts.Recorder == nil {
		return
	}

	rec := &storage.RunRecord{
		ID:         run.id.String(),
		Mode:       string(run.req.Mode),
		Objective:  run.req.Objective(),
		Depth:      string(run.req.Depth),
		Status:     status,
		CreatedAt:  run.started.UTC(),
		DurationMS: o.opts.Now().Sub(run.started).Milliseconds(),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
		var stageErr *StageError
		if errors.As(runErr, &stageErr) {
			rec.Stage = stageErr.Stage
		}
	}
	if run.artifact != nil {
		rec.ReportFile = run.artifact.Filename
	}

	// the caller may already be gone; history is written regardless
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := o.opts.Recorder.SaveRun(saveCtx, rec); err != nil {
		o.logger.Warn("failed to record run", "run_id", run.id, "error", err)
	}
}

func buildResult(run *runState, req types.ResearchRequest, steps []string) *types.PipelineResult {
	artifact := run.artifact
	result := &types.PipelineResult{
		RunID:      run.id,
		Status:     types.StatusCompleted,
		Mode:       req.Mode,
		Depth:      req.Depth,
		Steps:      steps,
		ReportPath: artifact.ReportPath,
		ReportHTML: types.OptionalString(artifact.HTML),
		PDFPath:    types.OptionalString(artifact.PDFPath),
		ViewURL:    ViewURLPrefix + artifact.Filename,
		CreatedAt:  run.started.UTC(),
	}
	if req.Mode == types.ModeCompare {
		result.ItemA = types.OptionalString(req.ItemA)
		result.ItemB = types.OptionalString(req.ItemB)
	} else {
		result.Topic = types.OptionalString(req.Topic)
	}
	if artifact.PDFName != "" {
		result.PDFURL = types.OptionalString(PDFURLPrefix + artifact.PDFName)
	}
	if result.Steps == nil {
		result.Steps = []string{}
	}
	return result
}

// modeLabel keeps label cardinality bounded: unvalidated modes are "invalid"
func modeLabel(resolved types.ResearchRequest) string {
	if resolved.Mode == "" {
		return "invalid"
	}
	return string(resolved.Mode)
}
