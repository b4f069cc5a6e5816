package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terrastories/server/internal/storage/postgres"
)

var (
	migrationsPath string
	migrateSteps   int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if err := postgres.MigrateUp(cfg.Database.URL, migrationsPath); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long:  `Roll back the given number of migrations (default 1).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if err := postgres.MigrateDown(cfg.Database.URL, migrationsPath, migrateSteps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", postgres.DefaultMigrationsPath, "migrations directory")
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
