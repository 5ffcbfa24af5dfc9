// Package config provides validation utilities for configuration values.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// validateConfig performs comprehensive validation of configuration values
func validateConfig(config *Config) error {
	var validationErrors []string

	// Validate numeric ranges
	if config.Player.CacheSeconds < 0 {
		validationErrors = append(validationErrors, "player.cache_seconds must be non-negative")
	}
	if config.Resume.MinPositionSeconds < 0 {
		validationErrors = append(validationErrors, "resume.min_position_seconds must be non-negative")
	}
	if config.Resume.TailSkipSeconds < 0 {
		validationErrors = append(validationErrors, "resume.tail_skip_seconds must be non-negative")
	}
	if config.History.MaxEntries < 0 {
		validationErrors = append(validationErrors, "history.max_entries must be non-negative")
	}

	// Validate video output
	if config.Player.VideoOutput == "" {
		validationErrors = append(validationErrors, "player.video_output cannot be empty (use \"auto\")")
	}

	// Validate logging level
	switch strings.ToLower(config.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled", "":
		// Valid
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic, disabled (got: %s)", config.Logging.Level))
	}

	// Validate logging format
	switch config.Logging.Format {
	case "console", "json", "":
		// Valid
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("logging.format must be one of: console, json (got: %s)", config.Logging.Format))
	}

	// Library roots anchor the sandbox for custom file streams, so
	// relative entries would silently depend on the working directory.
	for _, root := range config.Library.Roots {
		if !filepath.IsAbs(root) {
			validationErrors = append(validationErrors, fmt.Sprintf("library.roots entries must be absolute paths (got: %s)", root))
		}
	}

	// If there are validation errors, return them
	if len(validationErrors) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(validationErrors, "\n  - "))
	}

	return nil
}
