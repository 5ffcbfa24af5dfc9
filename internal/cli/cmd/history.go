package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cromfel/go-mpv/internal/cli/model"
	"github.com/cromfel/go-mpv/internal/cli/styles"
)

var (
	historyJSON bool
	historyMax  int
	historyYes  bool
)

const defaultHistoryMax = 50

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage playback history",
	Long:  `Interactive playback history browser with resume positions and play counts.`,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.Flags().IntVar(&historyMax, "max", defaultHistoryMax, "maximum entries to show (for --json)")
}

func runHistory(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	// JSON output mode (non-interactive)
	if historyJSON {
		return runHistoryJSON()
	}

	// Interactive TUI mode
	return runHistoryTUI()
}

// runHistoryTUI runs the interactive history browser. Selecting an entry
// prints its URI, ready for `mpvplay play "$(mpvplay history)"`.
func runHistoryTUI() error {
	app := GetApp()
	ctx := app.Ctx()

	store, err := app.History.Store(ctx)
	if err != nil {
		return err
	}

	m := model.NewHistoryModel(ctx, app.Theme, store)

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	hm, ok := finalModel.(model.HistoryModel)
	if !ok {
		return fmt.Errorf("unexpected model type")
	}
	if hm.Error() != nil {
		return hm.Error()
	}
	if uri := hm.Selected(); uri != "" {
		fmt.Println(uri)
	}
	return nil
}

// runHistoryJSON outputs history as JSON.
func runHistoryJSON() error {
	app := GetApp()
	ctx := app.Ctx()

	store, err := app.History.Store(ctx)
	if err != nil {
		return err
	}

	entries, err := store.Recent(ctx, historyMax)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// forgetCmd removes a single entry.
var forgetCmd = &cobra.Command{
	Use:   "forget <uri|path>",
	Short: "Remove one entry from playback history",
	Long: `Remove the history entry for a URI or local path.

Local paths are resolved the same way 'play' resolves them, so the entry
recorded by 'mpvplay play ./file.mkv' is found again by
'mpvplay history forget ./file.mkv'.`,
	Args: cobra.ExactArgs(1),
	RunE: runForget,
}

func init() {
	historyCmd.AddCommand(forgetCmd)
}

func runForget(_ *cobra.Command, args []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx := app.Ctx()

	uri, err := resolvePlayURI(args[0])
	if err != nil {
		return err
	}

	store, err := app.History.Store(ctx)
	if err != nil {
		return err
	}

	if err := store.Forget(ctx, uri); err != nil {
		return err
	}

	fmt.Printf("%s forgot %s\n", app.Theme.SuccessStyle.Render(styles.IconCheck), uri)
	return nil
}

// purgeCmd wipes the whole history.
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all playback history",
	Long:  `Delete every entry from the playback history database.`,
	RunE:  runPurge,
}

func init() {
	historyCmd.AddCommand(purgeCmd)
	purgeCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "skip confirmation prompt")
}

func runPurge(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx := app.Ctx()

	store, err := app.History.Store(ctx)
	if err != nil {
		return err
	}

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Println(app.Theme.Subtle.Render("History is already empty."))
		return nil
	}

	if !historyYes {
		fmt.Printf("%s This deletes %d history entries. Re-run with --yes to confirm.\n",
			app.Theme.WarningStyle.Render(styles.IconWarning), count)
		return nil
	}

	if err := store.Purge(ctx); err != nil {
		return err
	}

	fmt.Printf("%s purged %d entries\n", app.Theme.SuccessStyle.Render(styles.IconCheck), count)
	return nil
}
