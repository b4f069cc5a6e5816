package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/storage/postgres"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired sessions",
	Long: `Delete sessions whose expiry has passed. Run this periodically
(cron or a systemd timer) to keep the sessions table small; expired
sessions are also rejected at resolve time, so skipping a run is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger := cfg.Logging.Logger()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pool, err := postgres.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pool.Close()

		repo, err := postgres.NewRepository(pool)
		if err != nil {
			return fmt.Errorf("repository init failed: %w", err)
		}

		manager := auth.NewSessionManager(repo.Sessions(), cfg.Sessions.TTL, cfg.Sessions.SecureCookies)
		removed, err := manager.PurgeExpired(ctx)
		if err != nil {
			return fmt.Errorf("purge sessions: %w", err)
		}

		logger.Info().Int64("removed", removed).Msg("expired sessions purged")
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired sessions\n", removed)
		return nil
	},
}
