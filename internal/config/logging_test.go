package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoggingLevelMapping(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"ERROR":   zerolog.ErrorLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for input, want := range cases {
		cfg := LoggingConfig{Level: input}
		assert.Equal(t, want, cfg.level(), "level %q", input)
	}
}

func TestLoggingWriterSelection(t *testing.T) {
	_, console := LoggingConfig{Format: "console"}.writer().(zerolog.ConsoleWriter)
	assert.True(t, console)

	_, jsonConsole := LoggingConfig{Format: "json"}.writer().(zerolog.ConsoleWriter)
	assert.False(t, jsonConsole)
}

func TestLoggerCarriesServiceField(t *testing.T) {
	logger := LoggingConfig{Level: "error", Format: "json"}.Logger()
	assert.Equal(t, zerolog.ErrorLevel, logger.GetLevel())
}
