package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENVIRONMENT", "test")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/terrastories_test")
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 24*time.Hour, cfg.Sessions.TTL)
	require.Equal(t, int64(50<<20), cfg.Storage.MaxFileSize)
	require.True(t, cfg.Storage.GenerateETags)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "test", cfg.Environment)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/terrastories_test")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("STORAGE_GENERATE_ETAGS", "false")
	t.Setenv("RATE_LIMIT_LOGIN", "5")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 2*time.Hour, cfg.Sessions.TTL)
	require.False(t, cfg.Storage.GenerateETags)
	require.Equal(t, 5, cfg.RateLimit.LoginPerMinute)
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/terrastories_test")
	t.Setenv("ENVIRONMENT", "test")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "server:\n  port: 7070\nlogging:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Logging.Level)
	// Untouched values keep their env-derived defaults.
	require.Equal(t, "postgres://localhost/terrastories_test", cfg.Database.URL)
}

func TestLoadFileMissing(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/terrastories_test")
	t.Setenv("ENVIRONMENT", "test")

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
