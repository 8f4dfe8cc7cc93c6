// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/invowk/nakoload/pkg/importref"
)

const (
	// ReleaseDirName is the pre-bundled artifact directory under a runtime or home root.
	ReleaseDirName = "release"
	// SourceDirName is the source directory under a runtime or home root.
	SourceDirName = "src"

	// DefaultPackageDirName is the conventional package directory.
	DefaultPackageDirName = "node_modules"
	// DefaultDescriptorName is the package descriptor file name.
	DefaultDescriptorName = "package.json"
)

const (
	// KindPlugin is a code extension providing callable commands.
	KindPlugin ArtifactKind = "plugin"
	// KindSourceModule is further compiler input.
	KindSourceModule ArtifactKind = "sourceModule"
)

type (
	// ArtifactKind distinguishes plugins from source modules.
	ArtifactKind string

	// Artifact is the resolved unit to be loaded. Exactly one of Path and URL is set.
	Artifact struct {
		Kind ArtifactKind
		Path string
		URL  string
	}

	// Config is the explicit resolver configuration. Zero-value list fields
	// fall back to the defaults documented on each field.
	Config struct {
		// RuntimeDir is the runtime installation root (contains src/ and release/).
		RuntimeDir string
		// LibDir is the library root configured by NAKO_LIB.
		LibDir string
		// HomeDir is the home root configured by NAKO_HOME.
		HomeDir string
		// GlobalModuleDirs are the global module roots configured by NODE_PATH.
		GlobalModuleDirs []string
		// Style selects how references are classified (default: posix).
		Style importref.Style
		// PackageDirName is the conventional package directory (default: node_modules).
		PackageDirName string
		// DescriptorName is the package descriptor file (default: package.json).
		DescriptorName string
		// VendoredRuntimes are sub-runtimes nested in the package directory
		// (default: nadesiko3).
		VendoredRuntimes []string
		// SourceExtensions mark source modules (default: .nako3, .nako).
		SourceExtensions []string
		// PluginExtensions mark plugin files (default: .go, .lua, .js, .mjs, .cjs).
		PluginExtensions []string
	}

	// Request carries the per-call flags that distinguish plugin resolution
	// from source module resolution.
	Request struct {
		// AllowReleaseRoots adds the release directories to the search.
		AllowReleaseRoots bool
		// AllowNestedRoots adds vendored sub-runtime directories for script refs.
		AllowNestedRoots bool
	}

	// Resolution is the outcome of one Resolve call. Trace is populated even
	// when resolution fails.
	Resolution struct {
		Ref      string
		RefKind  importref.Kind
		Artifact *Artifact
		Trace    Trace
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// Resolver locates artifacts for module references. It holds no
	// per-resolution state and is safe for concurrent use.
	Resolver struct {
		cfg Config
		fs  afero.Fs
	}
)

// DefaultVendoredRuntimes lists the sub-runtimes probed in step (g).
var DefaultVendoredRuntimes = []string{"nadesiko3"}

// DefaultSourceExtensions lists the extensions of source modules.
var DefaultSourceExtensions = []string{".nako3", ".nako"}

// DefaultPluginExtensions lists the extensions of plugin files.
var DefaultPluginExtensions = []string{".go", ".lua", ".js", ".mjs", ".cjs"}

// WithFS sets the filesystem the resolver probes.
func WithFS(fs afero.Fs) Option {
	return func(r *Resolver) {
		r.fs = fs
	}
}

// New creates a resolver for cfg.
func New(cfg Config, opts ...Option) *Resolver {
	r := &Resolver{
		cfg: cfg.withDefaults(),
		fs:  afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective configuration, defaults applied.
func (r *Resolver) Config() Config { return r.cfg }

// IsRemote reports whether the artifact is fetched over the network.
func (a Artifact) IsRemote() bool { return a.URL != "" }

// Location returns the URL for remote artifacts and the path otherwise.
func (a Artifact) Location() string {
	if a.IsRemote() {
		return a.URL
	}
	return a.Path
}

// Ext returns the lower-cased file extension of the location.
func (a Artifact) Ext() string {
	if a.IsRemote() {
		return strings.ToLower(path.Ext(urlPath(a.URL)))
	}
	return strings.ToLower(filepath.Ext(a.Path))
}

// Name returns the base name of the location without its extension.
func (a Artifact) Name() string {
	base := filepath.Base(a.Path)
	if a.IsRemote() {
		base = path.Base(urlPath(a.URL))
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// String returns "<kind> <location>".
func (a Artifact) String() string {
	return fmt.Sprintf("%s %s", a.Kind, a.Location())
}

// Resolve finds the artifact for ref as requested from requestingFile.
//
// Remote URLs are returned verbatim. Path references probe exactly one
// candidate. Bare names walk the roots returned by Roots until the first hit.
// The returned Resolution is non-nil whenever classification succeeded, so
// callers can inspect the trace of a failed search.
func (r *Resolver) Resolve(ctx context.Context, ref, requestingFile string, req Request) (*Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve %q canceled: %w", ref, err)
	}

	kind := importref.Classify(ref, r.cfg.Style)
	res := &Resolution{Ref: ref, RefKind: kind}

	if kind == importref.KindRemoteURL {
		res.Artifact = &Artifact{Kind: r.KindOf(urlPath(ref)), URL: ref}
		return res, nil
	}

	var requestingDir string
	if kind != importref.KindAbsolutePath {
		if strings.TrimSpace(requestingFile) == "" {
			return res, &MissingRequesterContextError{Ref: ref}
		}
		absFile, err := filepath.Abs(requestingFile)
		if err != nil {
			return res, &MissingRequesterContextError{Ref: ref}
		}
		requestingDir = filepath.Dir(absFile)
	}

	probe := NewProbe(r.fs)
	var (
		found string
		err   error
	)
	switch kind {
	case importref.KindAbsolutePath:
		found, err = r.probeCandidate(probe, "absolute path", filepath.Clean(ref))
	case importref.KindRelativePath:
		found, err = r.probeCandidate(probe, "relative to requesting file", filepath.Join(requestingDir, ref))
	default:
		found, err = r.searchRoots(ctx, probe, ref, requestingDir, req)
	}
	res.Trace = probe.Trace()

	slog.Debug("resolved module reference",
		"ref", ref, "kind", kind.String(), "found", found != "", "probes", len(res.Trace), "stats", probe.Cached())

	if err != nil {
		return res, err
	}
	if found == "" {
		return res, &NotFoundError{Ref: ref, Kind: kind, Trace: res.Trace}
	}
	res.Artifact = &Artifact{Kind: r.KindOf(found), Path: found}
	return res, nil
}

// KindOf returns the artifact kind implied by a path's extension.
func (r *Resolver) KindOf(p string) ArtifactKind {
	if r.hasExt(p, r.cfg.SourceExtensions) {
		return KindSourceModule
	}
	return KindPlugin
}

// searchRoots walks the bare-name roots in order.
func (r *Resolver) searchRoots(ctx context.Context, probe *Probe, ref, requestingDir string, req Request) (string, error) {
	for _, root := range r.Roots(requestingDir, ref, req) {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("resolve %q canceled: %w", ref, err)
		}
		found, err := r.probeCandidate(probe, root.Description, filepath.Join(root.Dir, ref))
		if err != nil || found != "" {
			return found, err
		}
	}
	return "", nil
}

// probeCandidate checks a single candidate. A reference with a recognized
// extension must be a regular file. Anything else is treated as a package
// directory whose descriptor names the entry. It returns "" when this
// candidate does not match.
func (r *Resolver) probeCandidate(probe *Probe, description, candidate string) (string, error) {
	if r.isRecognized(candidate) {
		if probe.File(description, candidate) {
			return candidate, nil
		}
		return "", nil
	}

	if !probe.Dir(description+" (package)", candidate) {
		return "", nil
	}
	descPath := filepath.Join(candidate, r.cfg.DescriptorName)
	if !probe.File(description+" (descriptor)", descPath) {
		return "", nil
	}
	desc, err := ReadDescriptor(r.fs, descPath)
	if err != nil {
		return "", err
	}
	entry := desc.EntryPath()
	if probe.File(description+" (main entry)", entry) {
		return entry, nil
	}
	return "", nil
}

func (r *Resolver) isRecognized(p string) bool {
	return r.hasExt(p, r.cfg.SourceExtensions) || r.hasExt(p, r.cfg.PluginExtensions)
}

// isScriptRef reports whether ref carries a plugin script extension.
func (r *Resolver) isScriptRef(ref string) bool {
	return r.hasExt(ref, r.cfg.PluginExtensions)
}

func (r *Resolver) hasExt(p string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext != "" && slices.Contains(exts, ext)
}

func (c Config) withDefaults() Config {
	if c.Style == "" {
		c.Style = importref.StylePOSIX
	}
	if c.PackageDirName == "" {
		c.PackageDirName = DefaultPackageDirName
	}
	if c.DescriptorName == "" {
		c.DescriptorName = DefaultDescriptorName
	}
	if c.VendoredRuntimes == nil {
		c.VendoredRuntimes = slices.Clone(DefaultVendoredRuntimes)
	}
	if c.SourceExtensions == nil {
		c.SourceExtensions = slices.Clone(DefaultSourceExtensions)
	}
	if c.PluginExtensions == nil {
		c.PluginExtensions = slices.Clone(DefaultPluginExtensions)
	}
	c.SourceExtensions = lowerAll(c.SourceExtensions)
	c.PluginExtensions = lowerAll(c.PluginExtensions)
	return c
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
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
