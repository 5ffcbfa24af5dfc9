package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cromfel/go-mpv/internal/cli"
	"github.com/cromfel/go-mpv/internal/cli/styles"
	"github.com/cromfel/go-mpv/internal/config"
	"github.com/cromfel/go-mpv/internal/libmpv"
	"github.com/cromfel/go-mpv/pkg/mpv"
)

var (
	doctorOnlyEngine  bool
	doctorOnlyStorage bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check runtime requirements and diagnose issues",
	Long: `Doctor checks the prerequisites for playback.

By default it runs both:
- Engine checks (libmpv presence, client API version, engine probe)
- Storage checks (config and data directories, history database)

Use flags to run only one category.

Examples:
  mpvplay doctor
  mpvplay doctor --engine
  mpvplay doctor --storage`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorOnlyEngine, "engine", false, "Only run engine checks (libmpv)")
	doctorCmd.Flags().BoolVar(&doctorOnlyStorage, "storage", false, "Only run storage checks (directories/database)")
}

func runDoctor(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	if doctorOnlyEngine && doctorOnlyStorage {
		return fmt.Errorf("--engine and --storage are mutually exclusive")
	}

	runEngine := true
	runStorage := true
	if doctorOnlyEngine {
		runStorage = false
	}
	if doctorOnlyStorage {
		runEngine = false
	}

	engineOK := true
	if runEngine {
		engineOK = checkEngine(app)
	}

	storageOK := true
	if runStorage {
		if runEngine {
			fmt.Println()
		}
		storageOK = checkStorage(app)
	}

	if runEngine && !engineOK {
		return fmt.Errorf("engine requirements not met")
	}
	if runStorage && !storageOK {
		return fmt.Errorf("storage checks failed")
	}
	return nil
}

// checkEngine verifies that libmpv can be loaded and a handle created.
func checkEngine(app *cli.App) bool {
	t := app.Theme
	fmt.Println(t.BoxHeader.Render(styles.IconDoctor + " Engine"))

	if err := libmpv.Load(); err != nil {
		fmt.Printf("%s libmpv: %v\n", t.ErrorStyle.Render(styles.IconX), err)
		fmt.Println(t.Subtle.Render("  install mpv; the package usually ships libmpv.so.2"))
		return false
	}
	fmt.Printf("%s libmpv loaded (%s)\n", t.SuccessStyle.Render(styles.IconCheck), libmpv.LibraryPath())

	major, minor, err := mpv.APIVersion()
	if err != nil {
		fmt.Printf("%s client API version: %v\n", t.ErrorStyle.Render(styles.IconX), err)
		return false
	}
	fmt.Printf("%s client API v%d.%d\n", t.SuccessStyle.Render(styles.IconCheck), major, minor)

	// Full round trip: create and destroy a handle. Catches broken
	// installs that load fine but cannot initialize.
	client, err := mpv.NewWithInitializer(app.Ctx(), func(init *mpv.Initializer) error {
		return init.SetOptionString("vo", "null")
	})
	if err != nil {
		fmt.Printf("%s engine probe: %v\n", t.ErrorStyle.Render(styles.IconX), err)
		return false
	}
	name := client.ClientName()
	client.Close()
	fmt.Printf("%s engine probe ok (%s)\n", t.SuccessStyle.Render(styles.IconCheck), name)

	return true
}

// checkStorage verifies the XDG directories and the history database.
func checkStorage(app *cli.App) bool {
	t := app.Theme
	ctx := app.Ctx()
	fmt.Println(t.BoxHeader.Render(styles.IconDatabase + " Storage"))

	ok := true

	configFile, err := config.GetConfigFile()
	switch {
	case err != nil:
		fmt.Printf("%s config file: %v\n", t.ErrorStyle.Render(styles.IconX), err)
		ok = false
	default:
		if _, statErr := os.Stat(configFile); statErr != nil {
			fmt.Printf("%s config file %s (created on demand)\n", t.WarningStyle.Render(styles.IconWarning), configFile)
		} else {
			fmt.Printf("%s config file %s\n", t.SuccessStyle.Render(styles.IconCheck), configFile)
		}
	}

	dirs := []struct {
		name string
		get  func() (string, error)
	}{
		{"config dir", config.GetConfigDir},
		{"data dir", config.GetDataDir},
		{"state dir", config.GetStateDir},
		{"log dir", config.GetLogDir},
	}
	for _, d := range dirs {
		path, dirErr := d.get()
		if dirErr != nil {
			fmt.Printf("%s %s: %v\n", t.ErrorStyle.Render(styles.IconX), d.name, dirErr)
			ok = false
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			fmt.Printf("%s %s %s (created on demand)\n", t.WarningStyle.Render(styles.IconWarning), d.name, path)
		} else {
			fmt.Printf("%s %s %s\n", t.SuccessStyle.Render(styles.IconCheck), d.name, path)
		}
	}

	if !app.Config.History.Enabled {
		fmt.Printf("%s history disabled in config, skipping database checks\n", t.WarningStyle.Render(styles.IconWarning))
		return ok
	}

	store, err := app.History.Store(ctx)
	if err != nil {
		fmt.Printf("%s history database: %v\n", t.ErrorStyle.Render(styles.IconX), err)
		return false
	}

	version, err := store.MigrationVersion()
	if err != nil {
		fmt.Printf("%s history schema: %v\n", t.ErrorStyle.Render(styles.IconX), err)
		return false
	}

	count, err := store.Count(ctx)
	if err != nil {
		fmt.Printf("%s history entries: %v\n", t.ErrorStyle.Render(styles.IconX), err)
		return false
	}

	fmt.Printf("%s history database %s (schema v%d, %d entries)\n",
		t.SuccessStyle.Render(styles.IconCheck), app.History.Path(), version, count)

	return ok
}
