// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/invowk/nakoload/internal/config"
	"github.com/invowk/nakoload/pkg/depgraph"
	"github.com/invowk/nakoload/pkg/loader"
	"github.com/invowk/nakoload/pkg/resolve"

	"github.com/spf13/afero"
)

// defaultHTTPTimeout bounds a single remote fetch.
const defaultHTTPTimeout = 30 * time.Second

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Command handlers
	// receive an App and build resolvers and loaders through it.
	App struct {
		Config     ConfigProvider
		FS         afero.Fs
		HTTPClient loader.Doer
		Builtins   *loader.Registry
		Getenv     func(string) string
		stdout     io.Writer
		stderr     io.Writer

		// set by persistent flags
		verbose    bool
		configPath string

		// set by load
		cfg *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     ConfigProvider
		FS         afero.Fs
		HTTPClient loader.Doer
		Builtins   *loader.Registry
		Getenv     func(string) string
		Stdout     io.Writer
		Stderr     io.Writer
	}
)

// NewApp creates an App, filling unset dependencies with defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:     deps.Config,
		FS:         deps.FS,
		HTTPClient: deps.HTTPClient,
		Builtins:   deps.Builtins,
		Getenv:     deps.Getenv,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.FS == nil {
		app.FS = afero.NewOsFs()
	}
	if app.HTTPClient == nil {
		app.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if app.Builtins == nil {
		app.Builtins = defaultBuiltins()
	}
	if app.Getenv == nil {
		app.Getenv = os.Getenv
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// load reads the configuration and installs the logger. The --verbose flag
// wins over ui.verbose only when set.
func (a *App) load(ctx context.Context) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.configPath,
		Getenv:         a.Getenv,
		FS:             a.FS,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	if !a.verbose {
		a.verbose = cfg.UI.Verbose
	}
	slog.SetDefault(newLogger(a.stderr, a.verbose))
	return nil
}

func (a *App) newResolver() *resolve.Resolver {
	return resolve.New(a.cfg.ResolverConfig(), resolve.WithFS(a.FS))
}

func (a *App) newLoader() *loader.Loader {
	return loader.New(a.cfg.LoaderConfig(),
		loader.WithFS(a.FS),
		loader.WithHTTPClient(a.HTTPClient),
		loader.WithRegistry(a.Builtins),
	)
}

func (a *App) newDriver(reg depgraph.Registry, req resolve.Request, jobs int, extra ...depgraph.Option) *depgraph.Driver {
	opts := []depgraph.Option{
		depgraph.WithRequest(req),
		depgraph.WithParallelism(jobs),
		depgraph.WithBuiltins(a.Builtins.Names()...),
		depgraph.WithStyle(a.cfg.PathStyle),
	}
	return depgraph.New(a.newResolver(), a.newLoader(), reg, append(opts, extra...)...)
}

// cache returns the remote cache the loader would use.
func (a *App) cache() *loader.Cache {
	return a.newLoader().Cache()
}
