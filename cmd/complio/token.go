package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"complio/pkg/platform/middleware/auth"
)

// newTokenCommand mints a bearer token for local use against a server that
// shares the same signing key.
func newTokenCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue an HS256 bearer token for the given actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Server.JWTSigningKey == "" {
				return errors.New("JWT_SIGNING_KEY is not configured")
			}
			token, err := auth.IssueToken(cfg.Server.JWTSigningKey, args[0], ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
