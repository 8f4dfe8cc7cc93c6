// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/invowk/nakoload/pkg/loader"
	"github.com/invowk/nakoload/pkg/resolve"

	"github.com/spf13/cobra"
)

// defaultRequester is the file bare and relative references are resolved
// from when --from is not given.
const defaultRequester = "main.nako3"

type resolveOptions struct {
	from    string
	release bool
	nested  bool
	roots   bool
	trace   bool
	load    bool
}

func newResolveCommand(app *App) *cobra.Command {
	var opts resolveOptions
	cmd := &cobra.Command{
		Use:   "resolve <ref>",
		Short: "Show where a module reference resolves to",
		Long: `Resolve a module reference the way a 取り込む directive would.

Bare names walk the search roots in order; relative and absolute paths
probe exactly one candidate; https:// URLs are returned as-is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), app, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "requesting file (default ./"+defaultRequester+")")
	cmd.Flags().BoolVar(&opts.release, "release", false, "include the release directories")
	cmd.Flags().BoolVar(&opts.nested, "nested", false, "include vendored runtime directories for plugin scripts")
	cmd.Flags().BoolVar(&opts.roots, "roots", false, "list the search roots without resolving")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "print every path that was probed")
	cmd.Flags().BoolVar(&opts.load, "load", false, "also load the artifact and summarize it")
	return cmd
}

func runResolve(ctx context.Context, app *App, ref string, opts resolveOptions) error {
	requester, err := requesterPath(opts.from)
	if err != nil {
		return app.fail("resolve module", ref, err)
	}

	req := app.cfg.ResolveRequest()
	req.AllowReleaseRoots = req.AllowReleaseRoots || opts.release
	req.AllowNestedRoots = req.AllowNestedRoots || opts.nested

	r := app.newResolver()
	if opts.roots {
		for i, root := range r.Roots(filepath.Dir(requester), ref, req) {
			fmt.Fprintf(app.stdout, "%2d. %s: %s\n", i+1, root.Description, CmdStyle.Render(root.Dir))
		}
		return nil
	}

	res, err := r.Resolve(ctx, ref, requester, req)
	if opts.trace && res != nil {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("Search trace:"))
		fmt.Fprintln(app.stdout, res.Trace.String())
	}
	if err != nil {
		return app.fail("resolve module", ref, err)
	}

	fmt.Fprintf(app.stdout, "%s %s\n", kindLabel(res.Artifact.Kind), CmdStyle.Render(res.Artifact.Location()))
	if !opts.load {
		return nil
	}

	m, err := app.newLoader().Load(ctx, *res.Artifact)
	if err != nil {
		return app.fail("load module", res.Artifact.Location(), err)
	}
	defer func() { _ = m.Close() }()
	fmt.Fprintln(app.stdout, SuccessStyle.Render("✓ ")+summarizeModule(m))
	return nil
}

// requesterPath returns the absolute requesting file for from.
func requesterPath(from string) (string, error) {
	if from == "" {
		from = defaultRequester
	}
	if filepath.IsAbs(from) {
		return filepath.Clean(from), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(wd, from), nil
}

// summarizeModule describes a loaded module in one line.
func summarizeModule(m *loader.Module) string {
	if m.Artifact.Kind == resolve.KindSourceModule {
		return fmt.Sprintf("source module, %d bytes", len(m.Text))
	}
	switch export := m.Export.(type) {
	case map[string]any:
		keys := make([]string, 0, len(export))
		for k := range export {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return fmt.Sprintf("plugin exporting %s", strings.Join(keys, ", "))
	default:
		return fmt.Sprintf("plugin exporting %T", export)
	}
}
