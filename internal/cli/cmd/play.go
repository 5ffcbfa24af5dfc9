package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cromfel/go-mpv/internal/cli"
	"github.com/cromfel/go-mpv/internal/cli/model"
	"github.com/cromfel/go-mpv/internal/history"
	"github.com/cromfel/go-mpv/internal/logging"
	"github.com/cromfel/go-mpv/internal/player"
)

var (
	playNoVideo  bool
	playNoResume bool
	playNoTUI    bool
	playVolume   int
)

var playCmd = &cobra.Command{
	Use:   "play <uri|path>",
	Short: "Play a file or stream",
	Long: `Play a local file or a URI through the embedded engine.

Local paths are served through the built-in filereader:// protocol, which
streams the file from this process. Anything with an explicit scheme
(http://, https://, ...) is handed to the engine as-is.

Examples:
  mpvplay play ~/media/show.mkv
  mpvplay play https://example.com/stream.m3u8
  mpvplay play --no-video podcast.mp3`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolVar(&playNoVideo, "no-video", false, "audio only, never open a video window")
	playCmd.Flags().BoolVar(&playNoResume, "no-resume", false, "start from the beginning even when a position is stored")
	playCmd.Flags().BoolVar(&playNoTUI, "no-tui", false, "headless playback without the terminal UI")
	playCmd.Flags().IntVar(&playVolume, "volume", -1, "initial volume in percent (overrides config)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	// The command context carries signal cancellation from main; the app
	// context carries the logger. Merge them.
	ctx := app.Ctx()
	if cmdCtx := cmd.Context(); cmdCtx != nil {
		ctx = logging.WithContext(cmdCtx, *logging.FromContext(app.Ctx()))
	}

	uri, err := resolvePlayURI(args[0])
	if err != nil {
		return err
	}

	var store *history.Store
	if app.Config.History.Enabled {
		if store, err = app.History.Store(ctx); err != nil {
			return err
		}
	}

	sess, err := player.New(ctx, app.Config, store, player.Options{
		NoVideo:  playNoVideo,
		NoResume: playNoResume,
		Volume:   playVolume,
	})
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer sess.Close()

	if err := sess.Play(ctx, uri); err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}

	if playNoTUI {
		return runHeadless(ctx, sess)
	}
	return runWithTUI(ctx, app, sess)
}

// runHeadless pumps the session without a UI. Playback errors surface as
// the command's error so the exit code reflects them.
func runHeadless(ctx context.Context, sess *player.Session) error {
	var lastErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		for st := range sess.Updates() {
			if st.Err != nil {
				lastErr = st.Err
			}
		}
	}()

	if err := sess.Run(ctx); err != nil {
		return err
	}
	<-done
	return lastErr
}

// runWithTUI renders the playback view while the session runs next to it.
func runWithTUI(ctx context.Context, app *cli.App, sess *player.Session) error {
	m := model.NewPlayerModel(ctx, app.Theme, sess)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	final, tuiErr := p.Run()
	if tuiErr != nil {
		// The TUI died on its own; make sure the engine stops too.
		_ = sess.Quit()
	}

	err := <-runErr
	if tuiErr != nil && !errors.Is(tuiErr, tea.ErrProgramKilled) {
		return tuiErr
	}
	if err != nil {
		return err
	}

	if pm, ok := final.(model.PlayerModel); ok {
		return pm.Status().Err
	}
	return nil
}

// resolvePlayURI decides how the engine should see the argument. Anything
// with a scheme passes through untouched; plain paths must exist and become
// filereader:// URIs.
func resolvePlayURI(arg string) (string, error) {
	if hasScheme(arg) {
		return arg, nil
	}

	path, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return player.FileScheme + "://" + path, nil
}

// hasScheme reports whether arg looks like scheme://rest.
func hasScheme(arg string) bool {
	idx := strings.Index(arg, "://")
	if idx <= 0 {
		return false
	}
	for _, r := range arg[:idx] {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}
