// Package cmd provides Cobra CLI commands for mpvplay.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cromfel/go-mpv/internal/build"
	"github.com/cromfel/go-mpv/internal/cli"
)

var (
	app       *cli.App
	buildInfo build.Info
	rootCmd   = &cobra.Command{
		Use:   "mpvplay",
		Short: "A terminal media player built on libmpv",
		Long: `Mpvplay - a keyboard-driven media player for the terminal.

Playback runs on an embedded libmpv engine loaded at runtime, so anything
mpv can play, mpvplay can play.

Features:
  - TUI playback view with progress, volume, and pause state
  - Local files streamed through an in-process filereader:// protocol
  - Optional library roots that sandbox which files may be opened
  - Playback history with resume-where-you-left-off
  - SQLite-backed history with a browsable TUI

Use 'mpvplay play <uri>' to start playback, or explore the subcommands
for history browsing and diagnostics.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip initialization for commands that don't need app context
			switch cmd.Name() {
			case "help", "completion":
				return nil
			}

			var err error
			app, err = cli.NewApp()
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			// Set build info from main.go
			app.BuildInfo = buildInfo
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app != nil {
				_ = app.Close()
			}
		},
	}
)

// Execute runs the root command. ctx flows into the commands and carries
// signal cancellation from main.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GetApp returns the initialized app (for use by subcommands).
func GetApp() *cli.App {
	return app
}

// SetBuildInfo sets the build information (called from main.go before Execute).
func SetBuildInfo(info build.Info) {
	buildInfo = info
	rootCmd.Version = info.Version
}
