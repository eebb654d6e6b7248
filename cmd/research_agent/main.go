// Package main provides the entry point for the research agent CLI and HTTP API server.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/config"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "research_agent",
		Short: "AI research automation agent",
		Long: `research_agent searches the web for a topic or a pair of technologies, has an
LLM analyze the results and writes a Markdown report with HTML and PDF renderings.

Use "run" for a single report from the command line and "serve" for the REST API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (YAML or JSON); environment variables override it")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(newRunCmd(), newServeCmd(), newTokenCmd())
	return rootCmd
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the --config file and the environment.
// overrides are applied on top, keyed by config path.
func loadConfig(cmd *cobra.Command, overrides map[string]any) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	v := config.New()
	for key, value := range overrides {
		v.Set(key, value)
	}
	return config.LoadFrom(v, path)
}

// newLogger builds the process logger writing text records to w
func newLogger(cmd *cobra.Command, w io.Writer) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", raw)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
