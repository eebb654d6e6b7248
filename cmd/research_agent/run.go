package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/config"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/observability"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/pipeline"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

type runFlags struct {
	mode    string
	topic   string
	itemA   string
	itemB   string
	query   string
	depth   string
	verbose bool
	json    bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one research request and write its report",
		Long: `Runs the full pipeline once: plan -> search -> analyze -> report.

Examples:
  research_agent run --topic "vector databases" --depth short
  research_agent run --mode compare --item-a Postgres --item-b MySQL
  research_agent run --mode custom --query "Rust vs Go"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResearch(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "overview, compare or custom (default from config)")
	cmd.Flags().StringVarP(&f.topic, "topic", "t", "", "topic for overview mode")
	cmd.Flags().StringVar(&f.itemA, "item-a", "", "first item for compare mode")
	cmd.Flags().StringVar(&f.itemB, "item-b", "", "second item for compare mode")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "free-form query for custom mode")
	cmd.Flags().StringVarP(&f.depth, "depth", "d", "", "short, medium or detailed (default from config)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "print stage progress and a summary box")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the result as JSON")
	return cmd
}

// buildRequest turns flags into a validated request. Without --mode the mode
// follows from the flags given, falling back to the configured default.
func buildRequest(f runFlags, cfg *config.Config) (types.ResearchRequest, error) {
	mode := cfg.DefaultMode
	switch {
	case f.mode != "":
		parsed, err := types.ParseMode(f.mode)
		if err != nil {
			return types.ResearchRequest{}, err
		}
		mode = parsed
	case f.itemA != "" || f.itemB != "":
		mode = types.ModeCompare
	case f.query != "":
		mode = types.ModeCustom
	case f.topic != "":
		mode = types.ModeOverview
	}
	depth := cfg.DefaultDepth
	if f.depth != "" {
		parsed, err := types.ParseDepth(f.depth)
		if err != nil {
			return types.ResearchRequest{}, err
		}
		depth = parsed
	}

	req := types.ResearchRequest{
		Mode:  mode,
		Topic: f.topic,
		ItemA: f.itemA,
		ItemB: f.itemB,
		Query: f.query,
		Depth: depth,
	}
	if err := req.Validate(); err != nil {
		return types.ResearchRequest{}, err
	}
	return req, nil
}

func runResearch(cmd *cobra.Command, f runFlags) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	req, err := buildRequest(f, cfg)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, os.Stderr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)
	var onProgress pipeline.ProgressCallback
	if f.verbose && !f.json {
		onProgress = printer.PrintProgress
	}

	result, err := a.orchestrator.RunWithProgress(ctx, req, onProgress)
	if err != nil {
		return err
	}

	switch {
	case f.json:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case f.verbose:
		printer.PrintPlan(result.Steps)
		printer.PrintResult(result)
	default:
		_, _ = fmt.Fprintln(out, result.ReportPath)
		if result.PDFPath != nil {
			_, _ = fmt.Fprintln(out, *result.PDFPath)
		}
	}
	return nil
}
