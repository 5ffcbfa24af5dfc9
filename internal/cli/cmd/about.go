package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cromfel/go-mpv/internal/cli/styles"
	"github.com/cromfel/go-mpv/internal/libmpv"
)

var aboutCmd = &cobra.Command{
	Use:     "about",
	Aliases: []string{"version"},
	Short:   "Show version and build information",
	Long:    `Display version, build info, and the loaded engine library.`,
	RunE:    runAbout,
}

func init() {
	rootCmd.AddCommand(aboutCmd)
}

func runAbout(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	renderer := styles.NewAboutRenderer(app.Theme)
	fmt.Println(renderer.Render(app.BuildInfo))

	// Engine info is best-effort; about still works on hosts without
	// libmpv installed.
	if err := libmpv.Load(); err == nil {
		fmt.Printf("\n  %s %s\n",
			app.Theme.Subtle.Render("engine:"),
			app.Theme.Normal.Render(libmpv.LibraryPath()))
	}

	return nil
}
