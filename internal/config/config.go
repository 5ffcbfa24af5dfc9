// Package config provides configuration management for mpvplay with Viper integration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// File permission constants
const (
	dirPerm  = 0755 // Standard directory permissions (rwxr-xr-x)
	filePerm = 0644 // Standard file permissions (rw-r--r--)
)

// Config represents the complete configuration for mpvplay.
type Config struct {
	Player  PlayerConfig  `mapstructure:"player" json:"player"`
	Resume  ResumeConfig  `mapstructure:"resume" json:"resume"`
	History HistoryConfig `mapstructure:"history" json:"history"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
	Library LibraryConfig `mapstructure:"library" json:"library"`
}

// HWDecodeMode selects the hardware decoding policy handed to the engine.
type HWDecodeMode string

const (
	// HWDecodeAutoSafe enables hardware decoding only for whitelisted, known-good codepaths.
	HWDecodeAutoSafe HWDecodeMode = "auto-safe"
	// HWDecodeAuto enables hardware decoding whenever the engine thinks it can.
	HWDecodeAuto HWDecodeMode = "auto"
	// HWDecodeNo forces software decoding.
	HWDecodeNo HWDecodeMode = "no"
)

// PlayerConfig holds engine-level playback settings applied before initialization.
type PlayerConfig struct {
	Volume           int          `mapstructure:"volume" json:"volume"`
	Muted            bool         `mapstructure:"muted" json:"muted"`
	VideoOutput      string       `mapstructure:"video_output" json:"video_output"`
	HardwareDecoding HWDecodeMode `mapstructure:"hardware_decoding" json:"hardware_decoding"`
	CacheSeconds     int          `mapstructure:"cache_seconds" json:"cache_seconds"`
}

// ResumeConfig controls restoring playback positions from history.
type ResumeConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// MinPositionSeconds is the minimum saved position worth resuming from.
	MinPositionSeconds int `mapstructure:"min_position_seconds" json:"min_position_seconds"`
	// TailSkipSeconds treats positions within this distance of the end as finished.
	TailSkipSeconds int `mapstructure:"tail_skip_seconds" json:"tail_skip_seconds"`
}

// HistoryConfig holds playback history settings.
type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	Path       string `mapstructure:"path" json:"path"`
	MaxEntries int    `mapstructure:"max_entries" json:"max_entries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// LibraryConfig restricts which directories custom file streams may read from.
// An empty root list means no restriction.
type LibraryConfig struct {
	Roots []string `mapstructure:"roots" json:"roots"`
}

// Manager handles configuration loading, watching, and access.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	v := viper.New()

	// Configure Viper - supports yaml, json, toml automatically
	v.SetConfigName("config") // Will find config.yaml, config.json, config.toml, etc.

	// Add config paths
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Current directory for development

	// Set up environment variable support
	v.SetEnvPrefix("MPVPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	bindings := map[string]string{
		"player.volume":               "PLAYER_VOLUME",
		"player.muted":                "PLAYER_MUTED",
		"player.video_output":         "PLAYER_VIDEO_OUTPUT",
		"player.hardware_decoding":    "PLAYER_HARDWARE_DECODING",
		"player.cache_seconds":        "PLAYER_CACHE_SECONDS",
		"resume.enabled":              "RESUME_ENABLED",
		"resume.min_position_seconds": "RESUME_MIN_POSITION_SECONDS",
		"history.enabled":             "HISTORY_ENABLED",
		"history.path":                "HISTORY_PATH",
		"history.max_entries":         "HISTORY_MAX_ENTRIES",
		"logging.level":               "LOG_LEVEL",
		"logging.format":              "LOG_FORMAT",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, "MPVPLAY_"+env); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", env, err)
		}
	}

	return &Manager{
		viper:     v,
		callbacks: make([]func(*Config), 0),
	}, nil
}

// Load loads the configuration from file and environment variables.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Ensure directories exist
	if err := EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}

	// Set defaults
	m.setDefaults()

	// Read config file if it exists
	if err := m.viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create default one
			if err := m.createDefaultConfig(); err != nil {
				return fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := normalize(config); err != nil {
		return err
	}

	m.config = config
	return nil
}

// normalize fills derived fields and clamps enum-like values.
func normalize(config *Config) error {
	// Set database path if not specified
	if config.History.Path == "" {
		dbPath, err := GetDatabaseFile()
		if err != nil {
			return fmt.Errorf("failed to get database path: %w", err)
		}
		config.History.Path = dbPath
	}

	// Normalize/validate hardware decoding mode
	switch strings.ToLower(string(config.Player.HardwareDecoding)) {
	case "", string(HWDecodeAutoSafe):
		config.Player.HardwareDecoding = HWDecodeAutoSafe
	case string(HWDecodeAuto):
		config.Player.HardwareDecoding = HWDecodeAuto
	case string(HWDecodeNo):
		config.Player.HardwareDecoding = HWDecodeNo
	default:
		config.Player.HardwareDecoding = HWDecodeAutoSafe
	}

	// Volume is a percentage; the engine rejects values outside 0..130.
	if config.Player.Volume < 0 {
		config.Player.Volume = 0
	}
	if config.Player.Volume > 130 {
		config.Player.Volume = 130
	}

	return validateConfig(config)
}

// Get returns the current configuration (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	configCopy := *m.config
	return &configCopy
}

// Watch starts watching the config file for changes and reloads automatically.
func (m *Manager) Watch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return nil // Already watching
	}

	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(_ fsnotify.Event) {
		// Reload config
		if err := m.reload(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to reload config: %v\n", err)
			return
		}

		// Notify callbacks
		m.mu.RLock()
		config := m.config
		callbacks := make([]func(*Config), len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.mu.RUnlock()

		for _, callback := range callbacks {
			callback(config)
		}
	})

	m.watching = true
	return nil
}

// OnConfigChange registers a callback function to be called when config changes.
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callbacks = append(m.callbacks, callback)
}

// reload reloads the configuration.
func (m *Manager) reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.viper.ReadInConfig(); err != nil {
		return err
	}

	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return err
	}

	if err := normalize(config); err != nil {
		return err
	}

	m.config = config
	return nil
}

// createDefaultConfig creates a default configuration file.
func (m *Manager) createDefaultConfig() error {
	configFile, err := GetConfigFile()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configFile), dirPerm); err != nil {
		return err
	}

	// Get the default configuration
	defaultConfig := DefaultConfig()

	// Marshal to JSON with proper indentation
	configData, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	// Write JSON config file
	if err := os.WriteFile(configFile, configData, filePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created default configuration file: %s\n", configFile)

	// Ship the matching schema next to it so editors can validate edits.
	if err := GenerateSchemaFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to generate config schema: %v\n", err)
	}

	return nil
}

// GetConfigFile returns the path to the configuration file being used.
func (m *Manager) GetConfigFile() string {
	return m.viper.ConfigFileUsed()
}

// Global configuration manager instance
var globalManager *Manager
var globalManagerOnce sync.Once

// Init initializes the global configuration manager.
func Init() error {
	var err error
	globalManagerOnce.Do(func() {
		globalManager, err = NewManager()
		if err != nil {
			return
		}
		err = globalManager.Load()
	})
	return err
}

// Get returns the global configuration.
func Get() *Config {
	if globalManager == nil {
		// Return defaults if not initialized
		return DefaultConfig()
	}
	return globalManager.Get()
}

// Watch starts watching the global configuration for changes.
func Watch() error {
	if globalManager == nil {
		return fmt.Errorf("configuration not initialized")
	}
	return globalManager.Watch()
}

// OnConfigChange registers a callback for global configuration changes.
func OnConfigChange(callback func(*Config)) {
	if globalManager == nil {
		return
	}
	globalManager.OnConfigChange(callback)
}
