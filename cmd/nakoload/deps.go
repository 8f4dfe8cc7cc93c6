// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/invowk/nakoload/pkg/depgraph"
	"github.com/invowk/nakoload/pkg/resolve"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type depsOptions struct {
	prefix  string
	release bool
	nested  bool
	jobs    int
	graph   bool
}

func newDepsCommand(app *App) *cobra.Command {
	var opts depsOptions
	cmd := &cobra.Command{
		Use:   "deps <file>",
		Short: "Load every dependency of a program",
		Long: `Load every 取り込む dependency of a program, transitively.

All directives are attempted even when some fail, so every missing
dependency is reported in one run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd.Context(), app, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "file whose directives are processed before the program's")
	cmd.Flags().BoolVar(&opts.release, "release", false, "include the release directories")
	cmd.Flags().BoolVar(&opts.nested, "nested", false, "include vendored runtime directories for plugin scripts")
	cmd.Flags().BoolVar(&opts.graph, "graph", false, "print the load order of every file and artifact")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "concurrent loads (default remote.max_parallel)")
	return cmd
}

func runDeps(ctx context.Context, app *App, file string, opts depsOptions) error {
	mainFile, err := filepath.Abs(file)
	if err != nil {
		return app.fail("load dependencies", file, err)
	}
	source, err := afero.ReadFile(app.FS, mainFile)
	if err != nil {
		return app.fail("load dependencies", file, err)
	}
	var prefix []byte
	if opts.prefix != "" {
		if prefix, err = afero.ReadFile(app.FS, opts.prefix); err != nil {
			return app.fail("load dependencies", opts.prefix, err)
		}
	}

	req := app.cfg.ResolveRequest()
	req.AllowReleaseRoots = req.AllowReleaseRoots || opts.release
	req.AllowNestedRoots = req.AllowNestedRoots || opts.nested
	jobs := opts.jobs
	if jobs <= 0 {
		jobs = app.cfg.Remote.MaxParallel
	}

	reg := depgraph.NewMemoryRegistry()
	defer func() { _ = reg.Close() }()

	var extra []depgraph.Option
	var graph *depgraph.Graph
	if opts.graph {
		graph = depgraph.NewGraph()
		extra = append(extra, depgraph.WithGraph(graph))
	}

	err = app.newDriver(reg, req, jobs, extra...).LoadAll(ctx, string(source), mainFile, string(prefix))
	printRegistry(app, reg)
	if graph != nil {
		printLoadOrder(app, graph)
	}

	var failures *depgraph.FailureSet
	if errors.As(err, &failures) {
		for _, f := range failures.Failures {
			renderError(app.stderr, describeError("import", f.Directive.Position()+" "+f.Directive.Ref, f.Err), app.verbose)
		}
		fmt.Fprintln(app.stderr, ErrorStyle.Render(fmt.Sprintf("%d dependency failure(s)", failures.Count())))
		return &ExitError{Code: ExitFailure}
	}
	if err != nil {
		return app.fail("load dependencies", file, err)
	}
	return nil
}

func printRegistry(app *App, reg *depgraph.MemoryRegistry) {
	plugins, sources := reg.Plugins(), reg.Sources()
	if len(plugins) == 0 && len(sources) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no dependencies loaded)"))
		return
	}
	for _, p := range plugins {
		fmt.Fprintf(app.stdout, "%s %s %s\n", kindLabel(resolve.KindPlugin), TitleStyle.Render(p.Name), CmdStyle.Render(p.Location))
	}
	for _, s := range sources {
		fmt.Fprintf(app.stdout, "%s %s\n", sourceKindStyle.Render("source"), CmdStyle.Render(s.Location))
	}
}

func printLoadOrder(app *App, g *depgraph.Graph) {
	order, err := g.LoadOrder()
	if err != nil {
		fmt.Fprintln(app.stderr, WarningStyle.Render("! "+err.Error()))
		return
	}
	fmt.Fprintln(app.stdout, SubtitleStyle.Render("Load order:"))
	for i, node := range order {
		fmt.Fprintf(app.stdout, "%2d. %s\n", i+1, CmdStyle.Render(node))
	}
}
