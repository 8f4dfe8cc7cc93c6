// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/invowk/nakoload/internal/issue"
	"github.com/invowk/nakoload/pkg/cueutil"
	"github.com/invowk/nakoload/pkg/importref"
	"github.com/invowk/nakoload/pkg/loader"
	"github.com/invowk/nakoload/pkg/resolve"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "nakoload"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// DefaultMaxParallel is the default bound on concurrent loads.
	DefaultMaxParallel = 4
)

// Environment variables layered over the config file.
const (
	EnvLibDir           = "NAKO_LIB"
	EnvHomeDir          = "NAKO_HOME"
	EnvGlobalModulePath = "NODE_PATH"
	EnvRuntimeDir       = "NAKOLOAD_RUNTIME_DIR"
	EnvCacheDir         = "NAKOLOAD_CACHE_DIR"
)

//go:embed config_schema.cue
var configSchema string

// envKeys maps environment variables to config keys.
var envKeys = []struct {
	env string
	key string
}{
	{EnvRuntimeDir, "runtime_dir"},
	{EnvLibDir, "lib_dir"},
	{EnvHomeDir, "home_dir"},
	{EnvGlobalModulePath, "global_module_path"},
	{EnvCacheDir, "remote.cache_dir"},
}

// DefaultConfig returns the built-in configuration. The path style follows
// the host platform.
func DefaultConfig() *Config {
	style := importref.StylePOSIX
	if runtime.GOOS == "windows" {
		style = importref.StyleWindows
	}
	return &Config{
		PathStyle:        style,
		PackageDir:       resolve.DefaultPackageDirName,
		DescriptorName:   resolve.DefaultDescriptorName,
		VendoredRuntimes: append([]string(nil), resolve.DefaultVendoredRuntimes...),
		SourceExtensions: append([]string(nil), resolve.DefaultSourceExtensions...),
		PluginExtensions: append([]string(nil), resolve.DefaultPluginExtensions...),
		Remote: RemoteConfig{
			FailureMarker: loader.DefaultFailureMarker,
			MaxParallel:   DefaultMaxParallel,
			UserAgent:     loader.DefaultUserAgent,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// ConfigDir returns the nakoload configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	fs := opts.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(fs, opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'nakoload config show' to see the default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				Build()
		}
		if err := loadCUEIntoViper(fs, v, opts.ConfigFilePath); err != nil {
			return nil, "", fileError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		candidates := []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		}
		for _, path := range candidates {
			if !fileExists(fs, path) {
				continue
			}
			if err := loadCUEIntoViper(fs, v, path); err != nil {
				return nil, "", fileError(path, err)
			}
			resolvedPath = path
			break
		}
	}

	applyEnv(v, opts.Getenv)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check the values set in the config file and in NAKO_LIB, NAKO_HOME and NODE_PATH").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			Build()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("runtime_dir", string(defaults.RuntimeDir))
	v.SetDefault("lib_dir", string(defaults.LibDir))
	v.SetDefault("home_dir", string(defaults.HomeDir))
	v.SetDefault("global_module_path", defaults.GlobalModulePath)
	v.SetDefault("path_style", string(defaults.PathStyle))
	v.SetDefault("package_dir", defaults.PackageDir)
	v.SetDefault("descriptor_name", defaults.DescriptorName)
	v.SetDefault("vendored_runtimes", defaults.VendoredRuntimes)
	v.SetDefault("source_extensions", defaults.SourceExtensions)
	v.SetDefault("plugin_extensions", defaults.PluginExtensions)
	v.SetDefault("resolve.allow_release_roots", defaults.Resolve.AllowReleaseRoots)
	v.SetDefault("resolve.allow_nested_roots", defaults.Resolve.AllowNestedRoots)
	v.SetDefault("remote.cache_dir", string(defaults.Remote.CacheDir))
	v.SetDefault("remote.failure_marker", defaults.Remote.FailureMarker)
	v.SetDefault("remote.max_parallel", defaults.Remote.MaxParallel)
	v.SetDefault("remote.user_agent", defaults.Remote.UserAgent)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
}

// applyEnv overrides file values with non-empty environment variables.
func applyEnv(v *viper.Viper, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, e := range envKeys {
		if val := getenv(e.env); val != "" {
			v.Set(e.key, val)
		}
	}
}

func fileError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		Build()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// Viper, keeping defaults for unset fields.
func loadCUEIntoViper(fs afero.Fs, v *viper.Viper, path string) error {
	data, err := readLimited(fs, path, cueutil.DefaultMaxFileSize)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, data, "#Config", path)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// readLimited reads at most maxSize+1 bytes so an oversized file is
// rejected by cueutil.CheckFileSize without being read whole.
func readLimited(fs afero.Fs, path string, maxSize int64) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(io.LimitReader(f, maxSize+1))
}

// fileExists checks if a file exists and is not a directory
func fileExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config file unless one exists, and
// returns its path.
// A nil fs writes to the OS filesystem.
func CreateDefaultConfig(fs afero.Fs, configDirPath string) (string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	cfgDir, err := configDirWithOverride(configDirPath)
	if err != nil {
		return "", err
	}

	if err := fs.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := fs.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := afero.WriteFile(fs, cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration.
// Unset directories are emitted as comments.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// nakoload configuration file\n")
	sb.WriteString("// NAKO_LIB, NAKO_HOME and NODE_PATH override the matching fields.\n\n")

	writeDir := func(indent, key string, dir DirPath) {
		if dir == "" {
			fmt.Fprintf(&sb, "%s// %s: \"\"\n", indent, key)
			return
		}
		fmt.Fprintf(&sb, "%s%s: %q\n", indent, key, dir)
	}

	writeDir("", "runtime_dir", cfg.RuntimeDir)
	writeDir("", "lib_dir", cfg.LibDir)
	writeDir("", "home_dir", cfg.HomeDir)
	fmt.Fprintf(&sb, "global_module_path: %q\n", cfg.GlobalModulePath)
	fmt.Fprintf(&sb, "path_style: %q\n", cfg.PathStyle)
	fmt.Fprintf(&sb, "package_dir: %q\n", cfg.PackageDir)
	fmt.Fprintf(&sb, "descriptor_name: %q\n", cfg.DescriptorName)
	fmt.Fprintf(&sb, "vendored_runtimes: %s\n", cueList(cfg.VendoredRuntimes))
	fmt.Fprintf(&sb, "source_extensions: %s\n", cueList(cfg.SourceExtensions))
	fmt.Fprintf(&sb, "plugin_extensions: %s\n", cueList(cfg.PluginExtensions))

	sb.WriteString("\nresolve: {\n")
	fmt.Fprintf(&sb, "\tallow_release_roots: %v\n", cfg.Resolve.AllowReleaseRoots)
	fmt.Fprintf(&sb, "\tallow_nested_roots: %v\n", cfg.Resolve.AllowNestedRoots)
	sb.WriteString("}\n")

	sb.WriteString("\nremote: {\n")
	writeDir("\t", "cache_dir", cfg.Remote.CacheDir)
	fmt.Fprintf(&sb, "\tfailure_marker: %q\n", cfg.Remote.FailureMarker)
	fmt.Fprintf(&sb, "\tmax_parallel: %d\n", cfg.Remote.MaxParallel)
	fmt.Fprintf(&sb, "\tuser_agent: %q\n", cfg.Remote.UserAgent)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
