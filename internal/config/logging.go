package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger builds the process-wide logger from the logging section. Unknown
// levels fall back to info rather than failing startup; debug additionally
// annotates events with the caller so local traces point at source lines.
func (c LoggingConfig) Logger() zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := c.level()
	ctx := zerolog.New(c.writer()).
		Level(level).
		With().
		Timestamp().
		Str("service", "terrastories")
	if level == zerolog.DebugLevel {
		ctx = ctx.Caller()
	}

	logger := ctx.Logger()
	log.Logger = logger
	return logger
}

func (c LoggingConfig) level() zerolog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (c LoggingConfig) writer() io.Writer {
	if strings.EqualFold(c.Format, "console") {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return os.Stdout
}
