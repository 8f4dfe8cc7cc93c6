// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/invowk/nakoload/pkg/importref"
	"github.com/invowk/nakoload/pkg/loader"
	"github.com/invowk/nakoload/pkg/resolve"
)

// DefaultParallelism bounds concurrent loads when no option is given.
const DefaultParallelism = 4

type (
	// Resolver finds the artifact for a reference. *resolve.Resolver implements it.
	Resolver interface {
		Resolve(ctx context.Context, ref, requestingFile string, req resolve.Request) (*resolve.Resolution, error)
	}

	// Loader retrieves artifacts. *loader.Loader implements it.
	Loader interface {
		Load(ctx context.Context, a resolve.Artifact) (*loader.Module, error)
		LoadBuiltin(name string) (*loader.Module, error)
	}

	// Option configures a Driver.
	Option func(*Driver)

	// Driver loads the dependencies of a compilation. A Driver may be reused;
	// each LoadAll call starts with an empty set of loaded locations.
	Driver struct {
		resolver    Resolver
		loader      Loader
		registry    Registry
		scanner     Scanner
		parallelism int
		request     resolve.Request
		builtins    map[string]bool
		style       importref.Style
		graph       *Graph
	}

	// run holds the state of one LoadAll call.
	run struct {
		d        *Driver
		seen     map[string]bool
		failures []*DirectiveError
	}

	// job is one directive on its way through resolve, load and register.
	job struct {
		directive Directive
		artifact  resolve.Artifact
		builtin   string
		module    *loader.Module
		err       error
	}
)

// WithScanner replaces the directive scanner.
func WithScanner(s Scanner) Option {
	return func(d *Driver) {
		d.scanner = s
	}
}

// WithParallelism bounds how many artifacts load at once. Values below 1 mean 1.
func WithParallelism(n int) Option {
	return func(d *Driver) {
		d.parallelism = max(n, 1)
	}
}

// WithRequest sets the resolution flags used for every directive.
func WithRequest(req resolve.Request) Option {
	return func(d *Driver) {
		d.request = req
	}
}

// WithBuiltins names statically registered plugins. A bare reference to one
// of them, with or without extension, skips filesystem resolution.
func WithBuiltins(names ...string) Option {
	return func(d *Driver) {
		for _, n := range names {
			d.builtins[n] = true
		}
	}
}

// WithStyle sets the path style used to tell builtin names from paths.
// It should match the resolver's style (default: posix).
func WithStyle(style importref.Style) Option {
	return func(d *Driver) {
		d.style = style
	}
}

// WithGraph records every successful resolution as an edge from the
// importing file to the artifact. Edges accumulate across LoadAll calls.
func WithGraph(g *Graph) Option {
	return func(d *Driver) {
		d.graph = g
	}
}

// New creates a driver.
func New(r Resolver, l Loader, reg Registry, opts ...Option) *Driver {
	d := &Driver{
		resolver:    r,
		loader:      l,
		registry:    reg,
		scanner:     NakoScanner{},
		parallelism: DefaultParallelism,
		builtins:    make(map[string]bool),
		style:       importref.StylePOSIX,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LoadAll loads every dependency of sourceText, the content of mainFile.
// Directives inside prefixCode are attributed to line 0 of mainFile.
// All directives are attempted; if any failed the result is a *FailureSet.
func (d *Driver) LoadAll(ctx context.Context, sourceText, mainFile, prefixCode string) error {
	r := &run{d: d, seen: make(map[string]bool)}
	if mainFile != "" {
		if abs, err := filepath.Abs(mainFile); err == nil {
			r.seen[abs] = true
		}
	}

	var directives []Directive
	if prefixCode != "" {
		for _, dir := range d.scanner.Scan(prefixCode, mainFile) {
			dir.Line = 0
			directives = append(directives, dir)
		}
	}
	directives = append(directives, d.scanner.Scan(sourceText, mainFile)...)

	r.process(ctx, mainFile, directives)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("load dependencies of %s: %w", mainFile, err)
	}
	if len(r.failures) > 0 {
		return &FailureSet{Failures: r.failures}
	}
	return nil
}

// process handles the directives of one file: resolve in order, load
// concurrently, register in order, then descend into loaded source modules.
func (r *run) process(ctx context.Context, origin string, directives []Directive) {
	if len(directives) == 0 {
		return
	}

	jobs := make([]*job, 0, len(directives))
	for _, dir := range directives {
		if j := r.resolve(ctx, origin, dir); j != nil {
			jobs = append(jobs, j)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(r.d.parallelism)
	for _, j := range jobs {
		if j.err != nil {
			continue
		}
		g.Go(func() error {
			if j.builtin != "" {
				j.module, j.err = r.d.loader.LoadBuiltin(j.builtin)
			} else {
				j.module, j.err = r.d.loader.Load(ctx, j.artifact)
			}
			return nil
		})
	}
	_ = g.Wait()

	var sources []*job
	for _, j := range jobs {
		if j.err != nil {
			r.fail(j.directive, j.err)
			continue
		}
		if err := r.register(j); err != nil {
			_ = j.module.Close()
			r.fail(j.directive, err)
			continue
		}
		if j.artifact.Kind == resolve.KindSourceModule {
			sources = append(sources, j)
		}
	}

	for _, j := range sources {
		requester := j.artifact.Path
		if j.artifact.IsRemote() {
			requester = ""
		}
		r.process(ctx, j.artifact.Location(), r.d.scanner.Scan(j.module.Text, requester))
	}
}

// resolve returns nil when the directive names a location that this run
// already loaded. A failed resolution is returned as a job carrying the
// error so failures are reported in directive order. origin is the
// location of the importing file.
func (r *run) resolve(ctx context.Context, origin string, dir Directive) *job {
	if name, ok := r.builtinName(dir.Ref); ok {
		key := loader.BuiltinScheme + name
		r.edge(origin, key)
		if r.seen[key] {
			return nil
		}
		r.seen[key] = true
		return &job{
			directive: dir,
			artifact:  resolve.Artifact{Kind: resolve.KindPlugin, Path: key},
			builtin:   name,
		}
	}

	res, err := r.d.resolver.Resolve(ctx, dir.Ref, dir.File, r.d.request)
	if err != nil {
		return &job{directive: dir, err: err}
	}
	loc := res.Artifact.Location()
	r.edge(origin, loc)
	if r.seen[loc] {
		slog.Debug("dependency already loaded", "ref", dir.Ref, "location", loc)
		return nil
	}
	r.seen[loc] = true
	slog.Debug("dependency resolved", "ref", dir.Ref, "at", dir.Position(), "artifact", res.Artifact.String())
	return &job{directive: dir, artifact: *res.Artifact}
}

func (r *run) edge(origin, loc string) {
	if r.d.graph != nil && origin != "" {
		r.d.graph.AddEdge(origin, loc)
	}
}

func (r *run) register(j *job) error {
	a := j.module.Artifact
	if a.Kind == resolve.KindSourceModule {
		return r.d.registry.RegisterSource(Source{Location: a.Location(), Text: j.module.Text, Directive: j.directive})
	}
	name := a.Name()
	if j.builtin != "" {
		name = j.builtin
	}
	return r.d.registry.RegisterPlugin(Plugin{
		Name:      name,
		Location:  a.Location(),
		Export:    j.module.Export,
		Directive: j.directive,
		Module:    j.module,
	})
}

func (r *run) builtinName(ref string) (string, bool) {
	if len(r.d.builtins) == 0 || importref.Classify(ref, r.d.style) != importref.KindBareName {
		return "", false
	}
	if r.d.builtins[ref] {
		return ref, true
	}
	name := strings.TrimSuffix(ref, filepath.Ext(ref))
	return name, r.d.builtins[name]
}

func (r *run) fail(dir Directive, err error) {
	slog.Debug("dependency failed", "ref", dir.Ref, "at", dir.Position(), "error", err)
	r.failures = append(r.failures, &DirectiveError{Directive: dir, Err: err})
}
