// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/invowk/nakoload/pkg/importref"
	"github.com/invowk/nakoload/pkg/resolve"
)

const (
	// DefaultFailureMarker is the body text some CDNs serve with a 200 status
	// when a package version does not exist.
	DefaultFailureMarker = "Couldn't find the requested file"
	// DefaultUserAgent is sent with remote fetches.
	DefaultUserAgent = "nakoload"
	// BuiltinScheme prefixes the location of statically registered plugins.
	BuiltinScheme = "builtin:"
	// DefaultMaxBodySize bounds a single remote response.
	DefaultMaxBodySize int64 = 32 << 20
)

type (
	// Config is the explicit loader configuration.
	Config struct {
		// CacheDir holds fetched remote plugins (default: DefaultCacheDir()).
		CacheDir string
		// FailureMarker marks a successful response that actually means
		// "not found". Nil uses DefaultFailureMarker; an empty string
		// disables the check.
		FailureMarker *string
		// UserAgent is sent with remote fetches (default: nakoload).
		UserAgent string
		// MaxBodySize rejects larger remote responses (default: DefaultMaxBodySize).
		MaxBodySize int64
	}

	// Doer sends HTTP requests. *http.Client implements it.
	Doer interface {
		Do(req *http.Request) (*http.Response, error)
	}

	// Module is a loaded artifact. Text is set for source modules, Export
	// for plugins. CachePath is set for plugins loaded from the remote cache.
	Module struct {
		Artifact  resolve.Artifact
		Text      string
		Export    any
		CachePath string

		closer io.Closer
	}

	// Result is delivered by LoadAsync.
	Result struct {
		Module *Module
		Err    error
	}

	// Option configures a Loader.
	Option func(*Loader)

	// Loader retrieves artifact content. It is safe for concurrent use; the
	// cache is the only state shared between calls.
	Loader struct {
		fs          afero.Fs
		client      Doer
		registry    *Registry
		backends    map[string]Backend
		cache       *Cache
		marker      string
		userAgent   string
		maxBodySize int64
	}
)

// WithFS sets the filesystem used for local reads and the cache.
func WithFS(fs afero.Fs) Option {
	return func(l *Loader) {
		l.fs = fs
	}
}

// WithHTTPClient sets the HTTP client used for remote fetches.
func WithHTTPClient(c Doer) Option {
	return func(l *Loader) {
		l.client = c
	}
}

// WithRegistry sets the registry of statically linked plugins.
func WithRegistry(r *Registry) Option {
	return func(l *Loader) {
		l.registry = r
	}
}

// WithBackend installs or replaces the backend for ext (e.g. ".js").
// A nil backend removes the extension.
func WithBackend(ext string, b Backend) Option {
	return func(l *Loader) {
		ext = strings.ToLower(ext)
		if b == nil {
			delete(l.backends, ext)
			return
		}
		l.backends[ext] = b
	}
}

// New creates a loader for cfg.
func New(cfg Config, opts ...Option) *Loader {
	l := &Loader{
		fs:          afero.NewOsFs(),
		client:      http.DefaultClient,
		registry:    NewRegistry(),
		backends:    DefaultBackends(),
		marker:      DefaultFailureMarker,
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxBodySize,
	}
	if cfg.FailureMarker != nil {
		l.marker = *cfg.FailureMarker
	}
	if l.userAgent == "" {
		l.userAgent = DefaultUserAgent
	}
	if l.maxBodySize <= 0 {
		l.maxBodySize = DefaultMaxBodySize
	}
	for _, opt := range opts {
		opt(l)
	}
	l.cache = NewCache(l.fs, cfg.CacheDir)
	return l
}

// Cache returns the remote artifact cache.
func (l *Loader) Cache() *Cache { return l.cache }

// Registry returns the static plugin registry.
func (l *Loader) Registry() *Registry { return l.registry }

// Load retrieves a. The returned error is one of *resolve.NotFoundError,
// *TransportError, *CacheWriteError or *LoadError.
func (l *Loader) Load(ctx context.Context, a resolve.Artifact) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %s canceled: %w", a.Location(), err)
	}

	if a.Kind == resolve.KindSourceModule {
		if a.IsRemote() {
			body, err := l.fetch(ctx, a.URL)
			if err != nil {
				return nil, err
			}
			return &Module{Artifact: a, Text: string(body)}, nil
		}
		data, err := l.readLocal(a.Path)
		if err != nil {
			return nil, err
		}
		return &Module{Artifact: a, Text: string(data)}, nil
	}

	if a.IsRemote() {
		return l.loadRemotePlugin(ctx, a)
	}
	if m, ok, err := l.loadStatic(a, a.Name()); ok {
		return m, err
	}
	return l.loadPluginFile(ctx, a, a.Path)
}

// LoadAsync starts Load in a new goroutine. The channel receives exactly
// one Result and is then closed.
func (l *Loader) LoadAsync(ctx context.Context, a resolve.Artifact) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		m, err := l.Load(ctx, a)
		ch <- Result{Module: m, Err: err}
	}()
	return ch
}

// LoadBuiltin instantiates the statically registered plugin name.
func (l *Loader) LoadBuiltin(name string) (*Module, error) {
	a := resolve.Artifact{Kind: resolve.KindPlugin, Path: BuiltinScheme + name}
	m, ok, err := l.loadStatic(a, name)
	if !ok {
		return nil, &resolve.NotFoundError{Ref: name, Kind: importref.KindBareName}
	}
	return m, err
}

// Close releases interpreter state held by the module's export.
func (m *Module) Close() error {
	if m == nil || m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

func (l *Loader) loadStatic(a resolve.Artifact, name string) (*Module, bool, error) {
	factory, ok := l.registry.Lookup(name)
	if !ok {
		return nil, false, nil
	}
	export, err := factory()
	if err != nil {
		return nil, true, &LoadError{Location: a.Location(), Phase: PhaseEvaluate, Cause: err}
	}
	slog.Debug("instantiated static plugin", "name", name)
	return &Module{Artifact: a, Export: export}, true, nil
}

func (l *Loader) loadRemotePlugin(ctx context.Context, a resolve.Artifact) (*Module, error) {
	if p, ok := l.cache.Lookup(a.URL); ok {
		slog.Debug("remote plugin cache hit", "url", a.URL, "path", p)
		return l.loadPluginFile(ctx, a, p)
	}

	body, err := l.fetch(ctx, a.URL)
	if err != nil {
		return nil, err
	}
	if l.marker != "" && strings.Contains(string(body), l.marker) {
		return nil, &TransportError{URL: a.URL, StatusCode: http.StatusOK, Status: "200 OK", MarkerFound: true}
	}
	p, err := l.cache.Store(a.URL, body)
	if err != nil {
		return nil, err
	}
	return l.loadPluginFile(ctx, a, p)
}

// loadPluginFile evaluates the plugin file at p on behalf of a. For remote
// artifacts p is the cached copy.
func (l *Loader) loadPluginFile(ctx context.Context, a resolve.Artifact, p string) (*Module, error) {
	ext := a.Ext()
	backend, ok := l.backends[ext]
	if !ok {
		return nil, &LoadError{Location: a.Location(), Phase: PhaseBackend, Cause: fmt.Errorf("%w %q", ErrNoBackend, ext)}
	}

	src, err := l.readLocal(p)
	if err != nil {
		return nil, err
	}
	export, closer, err := backend.Evaluate(ctx, p, src)
	if err != nil {
		phase := PhaseEvaluate
		if errors.Is(err, ErrNoExport) {
			phase = PhaseExport
		}
		return nil, &LoadError{Location: a.Location(), Phase: phase, Cause: err}
	}

	m := &Module{Artifact: a, Export: export, closer: closer}
	if a.IsRemote() {
		m.CachePath = p
	}
	return m, nil
}

// readLocal verifies that p is a regular file before reading it, so a
// missing file and an unreadable one produce different errors.
func (l *Loader) readLocal(p string) ([]byte, error) {
	info, err := l.fs.Stat(p)
	if err != nil && !os.IsNotExist(err) {
		return nil, &LoadError{Location: p, Phase: PhaseRead, Cause: err}
	}
	if err != nil || !info.Mode().IsRegular() {
		return nil, &resolve.NotFoundError{
			Ref:   p,
			Kind:  importref.KindAbsolutePath,
			Trace: resolve.Trace{{Description: "load target", Path: p}},
		}
	}
	data, err := afero.ReadFile(l.fs, p)
	if err != nil {
		return nil, &LoadError{Location: p, Phase: PhaseRead, Cause: err}
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Cause: err}
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBodySize+1))
	if err != nil {
		return nil, &TransportError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status, Cause: err}
	}
	if int64(len(body)) > l.maxBodySize {
		return nil, &TransportError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Cause:      fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, l.maxBodySize),
		}
	}
	slog.Debug("fetched remote artifact", "url", rawURL, "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}

// urlPath returns the path component of a URL, or the raw string if it
// does not parse.
func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
