// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "nakoload",
		Short: "Resolve and load nadesiko3 plugins and modules",
		Long: TitleStyle.Render("nakoload") + SubtitleStyle.Render(" - plugin and module resolution for nadesiko3") + `

nakoload finds the files named by 取り込む directives, fetches remote
libraries into a local cache, and loads plugins written in Go or Lua.

Bare names are searched next to the requesting file, in the runtime
directories, in NAKO_LIB, NAKO_HOME and every NODE_PATH entry.

` + SubtitleStyle.Render("Examples:") + `
  nakoload resolve plugin_csv.go --from main.nako3
  nakoload resolve plugin_csv.go --roots
  nakoload deps main.nako3
  nakoload cache list
  nakoload config show`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(cmd.Context()); err != nil {
				return app.fail("load configuration", app.configPath, err)
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging and detailed error help")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/nakoload/config.cue)")

	root.AddCommand(newResolveCommand(app))
	root.AddCommand(newDepsCommand(app))
	root.AddCommand(newCacheCommand(app))
	root.AddCommand(newConfigCommand(app))

	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	return exitCode(err)
}

// Execute runs the CLI and exits. It is called by main.main().
func Execute() {
	os.Exit(Main())
}
