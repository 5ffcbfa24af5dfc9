// Package logging is a thin kit around zerolog. Loggers travel through
// context.Context; packages pull them back out with FromContext and tag
// themselves with a component field.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.Kitchen,
	}
}

// New creates a zerolog logger with the given configuration. Console format
// writes human-readable lines, anything else falls back to zerolog's native
// JSON stream. Output always goes to stderr so stdout stays free for command
// output and the TUI.
func New(cfg Config) zerolog.Logger {
	var output io.Writer = os.Stderr

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: cfg.TimeFormat,
		}
	}

	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// NewFromConfigValues creates a logger from plain string settings, as they
// arrive from the config file. Unknown values fall back to the defaults.
func NewFromConfigValues(level, format string) zerolog.Logger {
	cfg := DefaultConfig()

	if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
		cfg.Level = parsed
	}
	if format == "json" || format == "console" {
		cfg.Format = format
	}

	return New(cfg)
}

// NewFromEnv creates a logger from environment variables.
// MPVPLAY_LOG_LEVEL: trace, debug, info, warn, error (default: info)
// MPVPLAY_LOG_FORMAT: json, console (default: console)
func NewFromEnv() zerolog.Logger {
	return NewFromConfigValues(os.Getenv("MPVPLAY_LOG_LEVEL"), os.Getenv("MPVPLAY_LOG_FORMAT"))
}
