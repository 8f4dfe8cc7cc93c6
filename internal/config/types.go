// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/invowk/nakoload/pkg/importref"
	"github.com/invowk/nakoload/pkg/loader"
	"github.com/invowk/nakoload/pkg/resolve"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// MaxParallelLimit caps remote.max_parallel.
	MaxParallelLimit = 64
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidDirPath is the sentinel error wrapped by InvalidDirPathError.
	ErrInvalidDirPath = errors.New("invalid directory path")
	// ErrInvalidMaxParallel is the sentinel error wrapped by InvalidMaxParallelError.
	ErrInvalidMaxParallel = errors.New("invalid max parallel")
	// ErrInvalidExtension is the sentinel error wrapped by InvalidExtensionError.
	ErrInvalidExtension = errors.New("invalid file extension")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// DirPath is an optional directory. The zero value means "not configured";
	// non-zero values must not be whitespace-only.
	DirPath string

	// InvalidDirPathError is returned when a DirPath is whitespace-only.
	InvalidDirPathError struct {
		Field string
		Value DirPath
	}

	// InvalidMaxParallelError is returned when remote.max_parallel is out of range.
	InvalidMaxParallelError struct {
		Value int
	}

	// InvalidExtensionError is returned when a configured extension does not
	// start with a dot.
	InvalidExtensionError struct {
		Field string
		Value string
	}

	// InvalidConfigError collects every field-level validation error.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// RuntimeDir is the runtime installation root (contains src/ and release/).
		RuntimeDir DirPath `json:"runtime_dir" mapstructure:"runtime_dir"`
		// LibDir is the library root (NAKO_LIB).
		LibDir DirPath `json:"lib_dir" mapstructure:"lib_dir"`
		// HomeDir is the home root (NAKO_HOME).
		HomeDir DirPath `json:"home_dir" mapstructure:"home_dir"`
		// GlobalModulePath is a path list of global module roots (NODE_PATH).
		GlobalModulePath string `json:"global_module_path" mapstructure:"global_module_path"`
		// PathStyle selects how references are classified.
		PathStyle importref.Style `json:"path_style" mapstructure:"path_style"`
		// PackageDir is the conventional package directory name.
		PackageDir string `json:"package_dir" mapstructure:"package_dir"`
		// DescriptorName is the package descriptor file name.
		DescriptorName string `json:"descriptor_name" mapstructure:"descriptor_name"`
		// VendoredRuntimes are sub-runtimes nested in the package directory.
		VendoredRuntimes []string `json:"vendored_runtimes" mapstructure:"vendored_runtimes"`
		// SourceExtensions mark source modules.
		SourceExtensions []string `json:"source_extensions" mapstructure:"source_extensions"`
		// PluginExtensions mark plugin files.
		PluginExtensions []string `json:"plugin_extensions" mapstructure:"plugin_extensions"`
		// Resolve holds the default resolution flags.
		Resolve ResolveConfig `json:"resolve" mapstructure:"resolve"`
		// Remote configures fetching and caching of remote artifacts.
		Remote RemoteConfig `json:"remote" mapstructure:"remote"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ResolveConfig holds the default resolution flags.
	ResolveConfig struct {
		AllowReleaseRoots bool `json:"allow_release_roots" mapstructure:"allow_release_roots"`
		AllowNestedRoots  bool `json:"allow_nested_roots" mapstructure:"allow_nested_roots"`
	}

	// RemoteConfig configures remote fetches.
	RemoteConfig struct {
		// CacheDir overrides the cache directory (NAKOLOAD_CACHE_DIR).
		CacheDir DirPath `json:"cache_dir" mapstructure:"cache_dir"`
		// FailureMarker is the "not found" text checked in successful bodies.
		// An empty value disables the check.
		FailureMarker string `json:"failure_marker" mapstructure:"failure_marker"`
		// MaxParallel bounds concurrent loads.
		MaxParallel int `json:"max_parallel" mapstructure:"max_parallel"`
		// UserAgent is sent with every fetch.
		UserAgent string `json:"user_agent" mapstructure:"user_agent"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging and catalog guidance on errors
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// GlobalModuleDirs splits GlobalModulePath on the platform list separator,
// dropping empty entries.
func (c Config) GlobalModuleDirs() []string {
	var dirs []string
	for _, d := range filepath.SplitList(c.GlobalModulePath) {
		if strings.TrimSpace(d) != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// ResolverConfig returns the explicit resolver configuration.
func (c Config) ResolverConfig() resolve.Config {
	return resolve.Config{
		RuntimeDir:       string(c.RuntimeDir),
		LibDir:           string(c.LibDir),
		HomeDir:          string(c.HomeDir),
		GlobalModuleDirs: c.GlobalModuleDirs(),
		Style:            c.PathStyle,
		PackageDirName:   c.PackageDir,
		DescriptorName:   c.DescriptorName,
		VendoredRuntimes: c.VendoredRuntimes,
		SourceExtensions: c.SourceExtensions,
		PluginExtensions: c.PluginExtensions,
	}
}

// ResolveRequest returns the configured default resolution flags.
func (c Config) ResolveRequest() resolve.Request {
	return resolve.Request{
		AllowReleaseRoots: c.Resolve.AllowReleaseRoots,
		AllowNestedRoots:  c.Resolve.AllowNestedRoots,
	}
}

// LoaderConfig returns the explicit loader configuration.
func (c Config) LoaderConfig() loader.Config {
	marker := c.Remote.FailureMarker
	return loader.Config{
		CacheDir:      string(c.Remote.CacheDir),
		FailureMarker: &marker,
		UserAgent:     c.Remote.UserAgent,
	}
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	dirs := []struct {
		field string
		dir   DirPath
	}{
		{"runtime_dir", c.RuntimeDir},
		{"lib_dir", c.LibDir},
		{"home_dir", c.HomeDir},
		{"remote.cache_dir", c.Remote.CacheDir},
	}
	for _, d := range dirs {
		if valid, fieldErrs := d.dir.IsValid(d.field); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if err := c.PathStyle.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, ext := range c.SourceExtensions {
		if !validExtension(ext) {
			errs = append(errs, &InvalidExtensionError{Field: "source_extensions", Value: ext})
		}
	}
	for _, ext := range c.PluginExtensions {
		if !validExtension(ext) {
			errs = append(errs, &InvalidExtensionError{Field: "plugin_extensions", Value: ext})
		}
	}
	if c.Remote.MaxParallel < 1 || c.Remote.MaxParallel > MaxParallelLimit {
		errs = append(errs, &InvalidMaxParallelError{Value: c.Remote.MaxParallel})
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate returns the first validation error, or nil.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

func validExtension(ext string) bool {
	return len(ext) >= 2 && strings.HasPrefix(ext, ".")
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the DirPath.
func (p DirPath) String() string { return string(p) }

// IsValid returns whether the DirPath is valid. The zero value is valid.
func (p DirPath) IsValid(field string) (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidDirPathError{Field: field, Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDirPathError.
func (e *InvalidDirPathError) Error() string {
	return fmt.Sprintf("%s: invalid directory %q: non-empty value must not be whitespace-only", e.Field, e.Value)
}

// Unwrap returns ErrInvalidDirPath for errors.Is() compatibility.
func (e *InvalidDirPathError) Unwrap() error { return ErrInvalidDirPath }

// Error implements the error interface for InvalidMaxParallelError.
func (e *InvalidMaxParallelError) Error() string {
	return fmt.Sprintf("remote.max_parallel: %d is out of range (1-%d)", e.Value, MaxParallelLimit)
}

// Unwrap returns ErrInvalidMaxParallel for errors.Is() compatibility.
func (e *InvalidMaxParallelError) Unwrap() error { return ErrInvalidMaxParallel }

// Error implements the error interface for InvalidExtensionError.
func (e *InvalidExtensionError) Error() string {
	return fmt.Sprintf("%s: invalid extension %q: must start with '.'", e.Field, e.Value)
}

// Unwrap returns ErrInvalidExtension for errors.Is() compatibility.
func (e *InvalidExtensionError) Unwrap() error { return ErrInvalidExtension }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
