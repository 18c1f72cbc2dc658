package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"complio/internal/platform/database"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}
	cmd.AddCommand(migrateStep("up", "Apply all pending migrations", database.Up))
	cmd.AddCommand(migrateStep("down", "Roll back all migrations", database.Down))
	return cmd
}

func migrateStep(use, short string, direction database.Direction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db, direction); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", use)
			return nil
		},
	}
}
