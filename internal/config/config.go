package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Sessions       SessionConfig        `yaml:"sessions"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CORS           CORSConfig           `yaml:"cors"`
	Storage        StorageConfig        `yaml:"storage"`
	AdminBootstrap AdminBootstrapConfig `yaml:"admin_bootstrap"`
	Logging        LoggingConfig        `yaml:"logging"`
	Environment    string               `yaml:"environment"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
	MaxIdle        int    `yaml:"max_idle"`
}

type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SecureCookies bool          `yaml:"secure_cookies"`
	CSRFKey       string        `yaml:"csrf_key"`
}

type RateLimitConfig struct {
	PublicPerMinute int `yaml:"public_per_minute"`
	MemberPerMinute int `yaml:"member_per_minute"`
	LoginPerMinute  int `yaml:"login_per_minute"`
}

type CORSConfig struct {
	AllowedOrigins  []string `yaml:"allowed_origins"`
	AllowAllOrigins bool     `yaml:"allow_all_origins"`
}

type StorageConfig struct {
	BaseDir       string `yaml:"base_dir"`
	LegacyDir     string `yaml:"legacy_dir"`
	MaxFileSize   int64  `yaml:"max_file_size"`
	GenerateETags bool   `yaml:"generate_etags"`
}

type AdminBootstrapConfig struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds configuration from environment variables. In development a
// .env file in the working directory is loaded first, if present.
func Load() (Config, error) {
	if getEnv("ENVIRONMENT", "development") == "development" {
		_ = godotenv.Load()
	}

	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Sessions: SessionConfig{
			TTL:           time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
			SecureCookies: getEnvBool("SESSION_SECURE_COOKIES", false),
			CSRFKey:       getEnv("CSRF_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute: getEnvInt("RATE_LIMIT_PUBLIC", 60),
			MemberPerMinute: getEnvInt("RATE_LIMIT_MEMBER", 300),
			LoginPerMinute:  getEnvInt("RATE_LIMIT_LOGIN", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
			AllowAllOrigins: getEnv("ENVIRONMENT", "development") == "development",
		},
		Storage: StorageConfig{
			BaseDir:       getEnv("STORAGE_BASE_DIR", "data/media"),
			LegacyDir:     getEnv("STORAGE_LEGACY_DIR", ""),
			MaxFileSize:   getEnvInt64("STORAGE_MAX_FILE_SIZE", 50<<20),
			GenerateETags: getEnvBool("STORAGE_GENERATE_ETAGS", true),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Email:     getEnv("SUPER_ADMIN_EMAIL", ""),
			Password:  getEnv("SUPER_ADMIN_PASSWORD", ""),
			FirstName: getEnv("SUPER_ADMIN_FIRST_NAME", "Super"),
			LastName:  getEnv("SUPER_ADMIN_LAST_NAME", "Admin"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// LoadFile overlays values from a YAML config file onto an env-derived config.
// File values win over environment values where both are set.
func LoadFile(path string) (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("database url is required")
	}
	return cfg, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
