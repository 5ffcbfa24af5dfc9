package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cromfel/go-mpv/internal/cli/styles"
	"github.com/cromfel/go-mpv/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Inspect the effective configuration and its file locations.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the loaded configuration as JSON, after defaults and environment overrides.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE:  runConfigPath,
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Regenerate the JSON schema file",
	Long: `Write config.schema.json next to the config file.

Point your editor's JSON language server at it for completion and
validation while editing config.json.`,
	RunE: runConfigSchema,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSchemaCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	data, err := json.MarshalIndent(app.Config, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	configFile, err := config.GetConfigFile()
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(configFile); os.IsNotExist(statErr) {
		fmt.Printf("%s %s %s\n",
			app.Theme.WarningStyle.Render(styles.IconWarning),
			configFile,
			app.Theme.Subtle.Render("(not created yet; any command creates it)"))
		return nil
	}

	fmt.Println(configFile)
	return nil
}

func runConfigSchema(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	if err := config.GenerateSchemaFile(); err != nil {
		return err
	}

	configDir, err := config.GetConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("%s wrote %s\n",
		app.Theme.SuccessStyle.Render(styles.IconCheck),
		filepath.Join(configDir, "config.schema.json"))
	return nil
}
