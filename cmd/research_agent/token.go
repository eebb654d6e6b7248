package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/server"
)

// errAuthDisabled is returned by token when no signing secret is configured
var errAuthDisabled = errors.New("auth is disabled: set AUTH_JWT_SECRET (or JWT_SECRET) to issue tokens")

func newTokenCmd() *cobra.Command {
	var (
		subject string
		hours   int
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the research endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			if !cfg.AuthEnabled() {
				return errAuthDisabled
			}
			if hours < 0 {
				return fmt.Errorf("--hours must be positive, got %d", hours)
			}

			token, err := server.NewJWTService(&cfg.Auth).GenerateToken(subject, time.Duration(hours)*time.Hour)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "token subject (identifies the caller in logs)")
	cmd.Flags().IntVar(&hours, "hours", 0, "validity in hours (default auth.jwt_expiration_hours)")
	return cmd
}
