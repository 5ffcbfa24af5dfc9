package config

// DefaultConfig returns the configuration used when no config file exists yet.
func DefaultConfig() *Config {
	return &Config{
		Player: PlayerConfig{
			Volume:           100,
			Muted:            false,
			VideoOutput:      "auto",
			HardwareDecoding: HWDecodeAutoSafe,
			CacheSeconds:     30,
		},
		Resume: ResumeConfig{
			Enabled:            true,
			MinPositionSeconds: 30,
			TailSkipSeconds:    60,
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       "", // resolved to the XDG data dir on load
			MaxEntries: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Library: LibraryConfig{
			Roots: []string{},
		},
	}
}

// setDefaults seeds viper with defaults so partial config files stay valid.
func (m *Manager) setDefaults() {
	defaults := DefaultConfig()

	// Player defaults
	m.viper.SetDefault("player.volume", defaults.Player.Volume)
	m.viper.SetDefault("player.muted", defaults.Player.Muted)
	m.viper.SetDefault("player.video_output", defaults.Player.VideoOutput)
	m.viper.SetDefault("player.hardware_decoding", string(defaults.Player.HardwareDecoding))
	m.viper.SetDefault("player.cache_seconds", defaults.Player.CacheSeconds)

	// Resume defaults
	m.viper.SetDefault("resume.enabled", defaults.Resume.Enabled)
	m.viper.SetDefault("resume.min_position_seconds", defaults.Resume.MinPositionSeconds)
	m.viper.SetDefault("resume.tail_skip_seconds", defaults.Resume.TailSkipSeconds)

	// History defaults
	m.viper.SetDefault("history.enabled", defaults.History.Enabled)
	m.viper.SetDefault("history.path", defaults.History.Path)
	m.viper.SetDefault("history.max_entries", defaults.History.MaxEntries)

	// Logging defaults
	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)

	// Library defaults
	m.viper.SetDefault("library.roots", defaults.Library.Roots)
}
