package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateXDG points every XDG base directory into a fresh temp dir so tests
// never touch the real user configuration.
func isolateXDG(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("ENV", "")
	return dir
}

func writeConfigFile(t *testing.T, content map[string]any) string {
	t.Helper()

	configDir, err := GetConfigDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	data, err := json.MarshalIndent(content, "", "  ")
	require.NoError(t, err)

	path := filepath.Join(configDir, "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := isolateXDG(t)

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	configFile := filepath.Join(dir, "config", appName, "config.json")
	require.FileExists(t, configFile)
	assert.FileExists(t, filepath.Join(dir, "config", appName, "config.schema.json"))

	cfg := m.Get()
	defaults := DefaultConfig()
	assert.Equal(t, defaults.Player.Volume, cfg.Player.Volume)
	assert.Equal(t, defaults.Resume, cfg.Resume)
	assert.Equal(t, defaults.Logging, cfg.Logging)

	// The history path is resolved to the XDG data dir on load.
	assert.Equal(t, filepath.Join(dir, "data", appName, databaseName), cfg.History.Path)
}

func TestLoadReadsExistingFile(t *testing.T) {
	isolateXDG(t)
	writeConfigFile(t, map[string]any{
		"player": map[string]any{
			"volume": 55,
			"muted":  true,
		},
		"logging": map[string]any{
			"level": "debug",
		},
	})

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, 55, cfg.Player.Volume)
	assert.True(t, cfg.Player.Muted)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, DefaultConfig().History.MaxEntries, cfg.History.MaxEntries)
}

func TestEnvironmentOverrides(t *testing.T) {
	isolateXDG(t)
	t.Setenv("MPVPLAY_PLAYER_VOLUME", "42")
	t.Setenv("MPVPLAY_LOG_LEVEL", "warn")

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, 42, cfg.Player.Volume)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestVolumeClampedToEngineRange(t *testing.T) {
	tests := []struct {
		name   string
		volume int
		want   int
	}{
		{name: "above maximum", volume: 300, want: 130},
		{name: "negative", volume: -5, want: 0},
		{name: "in range", volume: 85, want: 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateXDG(t)
			writeConfigFile(t, map[string]any{
				"player": map[string]any{"volume": tt.volume},
			})

			m, err := NewManager()
			require.NoError(t, err)
			require.NoError(t, m.Load())
			assert.Equal(t, tt.want, m.Get().Player.Volume)
		})
	}
}

func TestHardwareDecodingNormalized(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  HWDecodeMode
	}{
		{name: "empty defaults to auto-safe", value: "", want: HWDecodeAutoSafe},
		{name: "uppercase accepted", value: "AUTO", want: HWDecodeAuto},
		{name: "explicit no", value: "no", want: HWDecodeNo},
		{name: "unknown falls back", value: "vulkan-magic", want: HWDecodeAutoSafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateXDG(t)
			writeConfigFile(t, map[string]any{
				"player": map[string]any{"hardware_decoding": tt.value},
			})

			m, err := NewManager()
			require.NoError(t, err)
			require.NoError(t, m.Load())
			assert.Equal(t, tt.want, m.Get().Player.HardwareDecoding)
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolateXDG(t)
	writeConfigFile(t, map[string]any{
		"history": map[string]any{"max_entries": -1},
		"library": map[string]any{"roots": []string{"relative/path"}},
	})

	m, err := NewManager()
	require.NoError(t, err)

	err = m.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history.max_entries")
	assert.Contains(t, err.Error(), "library.roots")
}

func TestGetReturnsCopy(t *testing.T) {
	isolateXDG(t)

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	cfg.Player.Volume = 7

	assert.NotEqual(t, 7, m.Get().Player.Volume)
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, validateConfig(DefaultConfig()))
}

func TestXDGDirsRespectEnvironment(t *testing.T) {
	dir := isolateXDG(t)

	dirs, err := GetXDGDirs()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config", appName), dirs.ConfigHome)
	assert.Equal(t, filepath.Join(dir, "data", appName), dirs.DataHome)
	assert.Equal(t, filepath.Join(dir, "state", appName), dirs.StateHome)
}

func TestXDGDirsFallBackToHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("ENV", "")

	dirs, err := GetXDGDirs()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".config", appName), dirs.ConfigHome)
	assert.Equal(t, filepath.Join(dir, ".local", "share", appName), dirs.DataHome)
	assert.Equal(t, filepath.Join(dir, ".local", "state", appName), dirs.StateHome)
}

func TestOnConfigChangeRegistersCallback(t *testing.T) {
	isolateXDG(t)

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	m.OnConfigChange(func(*Config) {})
	m.OnConfigChange(func(*Config) {})

	m.mu.RLock()
	defer m.mu.RUnlock()
	assert.Len(t, m.callbacks, 2)
}
