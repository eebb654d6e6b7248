package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/analysis"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/config"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/history"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/llm"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/pdf"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/pipeline"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/planner"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/reports"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/search"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/storage"
)

// app holds the components shared by run and serve
type app struct {
	orchestrator *pipeline.Orchestrator
	store        *reports.Store
	history      storage.Backend
	llm          llm.Client
}

// newApp wires the pipeline from cfg. Close must be called when done.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig().Pinned(cfg.LLM.Model), cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a := &app{llm: llmClient}

	searcher, err := search.New(ctx, search.Options{
		Provider: cfg.Search.Provider,
		APIKey:   cfg.Search.APIKey,
		GoogleCX: cfg.Search.GoogleCX,
		Timeout:  cfg.Search.Timeout,
		Logger:   logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}

	plannerOpts := []planner.Option{planner.WithLogger(logger)}
	if cfg.Planner.UseLLM {
		plannerOpts = append(plannerOpts, planner.WithLLM(llmClient, cfg.LLM.Timeout))
	}

	analyzer := analysis.New(llmClient,
		analysis.WithTimeout(cfg.LLM.Timeout),
		analysis.WithSnippetLimit(cfg.Analysis.SnippetLimit),
		analysis.WithLogger(logger),
	)

	a.store = reports.NewStore(cfg.Reports.Dir)
	genOpts := []reports.GeneratorOption{reports.WithLogger(logger)}
	if cfg.PDF.Enabled {
		genOpts = append(genOpts, reports.WithPDF(pdf.New(cfg.PDF.Timeout, pdf.WithExecPath(cfg.PDF.ChromePath))))
	}

	opts := pipeline.Options{
		DefaultDepth:      cfg.DefaultDepth,
		MaxResults:        cfg.Search.MaxResults,
		CompareMaxResults: cfg.Search.CompareMaxResults,
		Logger:            logger,
	}
	backend, err := history.Open(ctx, cfg.History.DSN)
	switch {
	case errors.Is(err, history.ErrDisabled):
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("failed to open run history: %w", err)
	default:
		a.history = backend
		opts.Recorder = backend
		logger.Info("run history enabled", "backend", history.Kind(cfg.History.DSN))
	}

	a.orchestrator = pipeline.New(
		planner.New(plannerOpts...),
		searcher,
		analyzer,
		reports.NewGenerator(a.store, genOpts...),
		opts,
	)
	return a, nil
}

// Close releases the LLM client and the history store
func (a *app) Close() {
	if a.history != nil {
		_ = a.history.Close()
	}
	if a.llm != nil {
		_ = a.llm.Close()
	}
}
