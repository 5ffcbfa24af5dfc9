package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cromfel/go-mpv/internal/build"
	"github.com/cromfel/go-mpv/internal/cli/cmd"
)

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	enableCrashForensics()

	// Pass build info to CLI
	cmd.SetBuildInfo(build.New(version, commit, buildDate))

	// SIGINT/SIGTERM cancel the command context, which stops playback
	// cleanly so the final position save still runs.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
