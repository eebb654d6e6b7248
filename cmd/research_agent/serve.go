package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/server"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/server/ratelimit"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  `Start an HTTP server that exposes the research endpoints, report viewing and PDF downloads.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides := map[string]any{}
			if cmd.Flags().Changed("port") {
				overrides["server.port"] = port
			}
			return runServe(cmd, overrides)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on; when unset, server.port from the config file or PORT/SERVER_PORT applies (8000 by default)")
	return cmd
}

func runServe(cmd *cobra.Command, overrides map[string]any) error {
	cfg, err := loadConfig(cmd, overrides)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var jwtService *server.JWTService
	if cfg.AuthEnabled() {
		jwtService = server.NewJWTService(&cfg.Auth)
		logger.Info("bearer token authentication enabled for /research endpoints")
	}

	srv := server.New(server.Config{
		Addr:      cfg.Addr(),
		Runner:    a.orchestrator,
		Reports:   a.store,
		History:   a.history,
		JWT:       jwtService,
		RateLimit: ratelimit.ResearchConfig(cfg.RateLimit.Enabled, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		Logger:    logger,
	})
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
