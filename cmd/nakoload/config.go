// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/invowk/nakoload/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage nakoload configuration",
		Long: `Manage nakoload configuration.

Configuration is stored in:
  - Linux: ~/.config/nakoload/config.cue
  - macOS: ~/Library/Application Support/nakoload/config.cue
  - Windows: %APPDATA%\nakoload\config.cue

NAKO_LIB, NAKO_HOME, NODE_PATH, NAKOLOAD_RUNTIME_DIR and
NAKOLOAD_CACHE_DIR override the values from the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(app.stderr, "%s %s\n", SubtitleStyle.Render("Config file:"), configFileLabel(app))
			fmt.Fprint(app.stdout, config.GenerateCUE(app.cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return app.fail("locate configuration", "", err)
			}
			fmt.Fprintln(app.stdout, filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig(app.FS, "")
			if err != nil {
				return app.fail("create configuration", "", err)
			}
			fmt.Fprintf(app.stdout, "%s configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	return cfgCmd
}

// configFileLabel names the file the configuration came from.
func configFileLabel(app *App) string {
	if app.configPath != "" {
		return app.configPath
	}
	if cfgDir, err := config.ConfigDir(); err == nil {
		path := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return "(using defaults)"
}
