// Package cli provides CLI commands using Bubble Tea TUI.
package cli

import (
	"context"
	"os"

	"github.com/cromfel/go-mpv/internal/build"
	"github.com/cromfel/go-mpv/internal/cli/styles"
	"github.com/cromfel/go-mpv/internal/config"
	"github.com/cromfel/go-mpv/internal/history"
	"github.com/cromfel/go-mpv/internal/logging"
)

// App holds CLI dependencies.
type App struct {
	Config    *config.Config
	Theme     *styles.Theme
	BuildInfo build.Info
	History   *history.LazyStore

	// Context with logger
	ctx context.Context
}

// NewApp creates a new CLI application with all dependencies.
func NewApp() (*App, error) {
	// Load config
	cfg := loadConfig()

	// Create theme
	theme := styles.NewTheme()

	// Environment wins over the config file so a single run can be
	// debugged without editing config.json.
	logLevel := cfg.Logging.Level
	if envLevel := os.Getenv("MPVPLAY_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
	}
	logFormat := cfg.Logging.Format
	if envFormat := os.Getenv("MPVPLAY_LOG_FORMAT"); envFormat != "" {
		logFormat = envFormat
	}

	logger := logging.NewFromConfigValues(logLevel, logFormat)
	ctx := logging.WithContext(context.Background(), logger)

	// Determine database path - normally resolved during config load, but
	// the default-config fallback above leaves it empty.
	dbFile := cfg.History.Path
	if dbFile == "" {
		var err error
		if dbFile, err = config.GetDatabaseFile(); err != nil {
			return nil, err
		}
	}

	// History opens lazily; most commands never touch the database.
	store := history.NewLazyStore(dbFile)

	logger.Debug().Str("db_path", store.Path()).Msg("application initialized")

	return &App{
		Config:  cfg,
		Theme:   theme,
		History: store,
		ctx:     ctx,
	}, nil
}

// Close releases all resources.
func (a *App) Close() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}

// Ctx returns the application context with logger.
func (a *App) Ctx() context.Context {
	return a.ctx
}

// loadConfig loads configuration from standard locations. Failures fall
// back to defaults; the config-derived logger does not exist yet at this
// point, so the env-configured one reports the problem.
func loadConfig() *config.Config {
	mgr, err := config.NewManager()
	if err != nil {
		logger := logging.NewFromEnv()
		logger.Warn().Err(err).Msg("using default configuration")
		return config.DefaultConfig()
	}

	if err := mgr.Load(); err != nil {
		logger := logging.NewFromEnv()
		logger.Warn().Err(err).Msg("using default configuration")
		return config.DefaultConfig()
	}

	return mgr.Get()
}
