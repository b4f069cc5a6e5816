package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/terrastories/server/internal/api"
	"github.com/terrastories/server/internal/audit"
	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/config"
	"github.com/terrastories/server/internal/domain/communities"
	"github.com/terrastories/server/internal/domain/places"
	"github.com/terrastories/server/internal/domain/speakers"
	"github.com/terrastories/server/internal/domain/stories"
	"github.com/terrastories/server/internal/domain/users"
	"github.com/terrastories/server/internal/media"
	"github.com/terrastories/server/internal/metrics"
	"github.com/terrastories/server/internal/storage"
	"github.com/terrastories/server/internal/storage/files"
	"github.com/terrastories/server/internal/storage/postgres"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Terrastories HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Bootstrap a super admin user if SUPER_ADMIN_* env vars are set
- Serve the community, story, speaker, place, user, and media endpoints
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := cfg.Logging.Logger()
	logger.Info().Msg("starting terrastories server")

	if cfg.Sessions.CSRFKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("generate csrf key: %w", err)
		}
		cfg.Sessions.CSRFKey = hex.EncodeToString(key)
		logger.Warn().Msg("CSRF_KEY not set; generated an ephemeral key, tokens will not survive restarts")
	}

	metrics.Init(Version, GitCommit, BuildDate)

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(poolCtx, cfg.Database.URL)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return fmt.Errorf("repository init failed: %w", err)
	}

	auditLogger := audit.New(logger)
	auditLogger.AddSink(audit.ZerologSink(logger))
	auditLogger.AddSink(postgres.NewAuditSink(pool))

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapSuperAdmin(bootstrapCtx, cfg, repo.Users(), logger); err != nil {
		logger.Error().Err(err).Msg("super admin bootstrap failed")
	}
	bootstrapCancel()

	primary, err := files.NewLocal(files.Config{
		BaseDir:       cfg.Storage.BaseDir,
		MaxFileSize:   cfg.Storage.MaxFileSize,
		GenerateETags: cfg.Storage.GenerateETags,
	})
	if err != nil {
		return fmt.Errorf("media storage init failed: %w", err)
	}
	var legacy storage.FileStore
	if cfg.Storage.LegacyDir != "" {
		legacyStore, err := files.NewLocal(files.Config{
			BaseDir:       cfg.Storage.LegacyDir,
			MaxFileSize:   cfg.Storage.MaxFileSize,
			GenerateETags: cfg.Storage.GenerateETags,
		})
		if err != nil {
			return fmt.Errorf("legacy media storage init failed: %w", err)
		}
		legacy = legacyStore
		logger.Info().Str("dir", cfg.Storage.LegacyDir).Msg("legacy media store active, dual reads enabled")
	}

	fileOps := metrics.NewFileOpsCollector()
	sessions := auth.NewSessionManager(repo.Sessions(), cfg.Sessions.TTL, cfg.Sessions.SecureCookies)

	communityService := communities.NewService(repo.Communities(), auditLogger, logger)
	userService := users.NewService(repo.Users(), auditLogger, logger)
	storyService := stories.NewService(repo.Stories(), repo.Communities(), logger)
	speakerService := speakers.NewService(repo.Speakers(), repo.Communities(), logger)
	placeService := places.NewService(repo.Places(), repo.Communities(), logger)
	mediaService := media.NewService(primary, legacy, fileOps, logger)

	router := api.NewRouter(api.Dependencies{
		Config:      cfg,
		Logger:      logger,
		Pool:        pool,
		Sessions:    sessions,
		Audit:       auditLogger,
		Communities: communityService,
		Users:       userService,
		Stories:     storyService,
		Speakers:    speakerService,
		Places:      placeService,
		Media:       mediaService,
		FileOps:     fileOps,
		Version:     Version,
		Commit:      GitCommit,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return serveUntilSignal(server, logger)
}

// serveUntilSignal runs the listener until SIGINT or SIGTERM, then drains
// in-flight requests. A listener failure cancels the group so the shutdown
// goroutine does not outlive it.
func serveUntilSignal(server *http.Server, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// bootstrapSuperAdmin creates the initial super admin account when the
// SUPER_ADMIN_* variables are set and the email is not yet taken. Super
// admins are the only users without a community binding.
func bootstrapSuperAdmin(ctx context.Context, cfg config.Config, repo users.Repository, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Email == "" || bootstrap.Password == "" {
		logger.Warn().Msg("super admin bootstrap env vars not fully set; skipping")
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(bootstrap.Email))

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, users.ErrNotFound) {
		return fmt.Errorf("check super admin: %w", err)
	}

	hash, err := auth.HashPassword(bootstrap.Password)
	if err != nil {
		return fmt.Errorf("hash super admin password: %w", err)
	}

	created, err := repo.Create(ctx, users.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    bootstrap.FirstName,
		LastName:     bootstrap.LastName,
		Role:         auth.RoleSuperAdmin,
		CommunityID:  nil,
	})
	if err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}

	// Redact email in production to avoid PII leaks.
	if cfg.Environment == "production" {
		logger.Info().Str("user_id", created.ID.String()).Msg("bootstrapped super admin")
	} else {
		logger.Info().Str("email", bootstrap.Email).Msg("bootstrapped super admin")
	}
	return nil
}
