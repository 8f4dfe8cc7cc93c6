// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCommand(app *App) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the remote library cache",
		Long: `Inspect the remote library cache.

Remote plugins are written to the cache before they are loaded. Entries
are never refreshed automatically; 'nakoload cache clean' removes them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(app.stdout, app.cache().Dir())
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.cache()
			entries, err := c.Entries()
			if err != nil {
				return app.fail("list cache", c.Dir(), err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(cache is empty)"))
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(app.stdout, "%8d  %s  %s\n", e.Size, e.ModTime.Format("2006-01-02 15:04"), CmdStyle.Render(e.Name))
			}
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cached file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.cache()
			n, err := c.Clean()
			if err != nil {
				return app.fail("clean cache", c.Dir(), err)
			}
			fmt.Fprintf(app.stdout, "%s removed %d file(s) from %s\n", SuccessStyle.Render("✓"), n, c.Dir())
			return nil
		},
	})

	return cacheCmd
}
