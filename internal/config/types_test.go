// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestConfigIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "whitespace lib dir", mutate: func(c *Config) { c.LibDir = " \t" }, wantErr: ErrInvalidDirPath},
		{name: "whitespace cache dir", mutate: func(c *Config) { c.Remote.CacheDir = " " }, wantErr: ErrInvalidDirPath},
		{name: "extension without dot", mutate: func(c *Config) { c.SourceExtensions = []string{"nako3"} }, wantErr: ErrInvalidExtension},
		{name: "bare dot extension", mutate: func(c *Config) { c.PluginExtensions = []string{"."} }, wantErr: ErrInvalidExtension},
		{name: "zero parallelism", mutate: func(c *Config) { c.Remote.MaxParallel = 0 }, wantErr: ErrInvalidMaxParallel},
		{name: "too much parallelism", mutate: func(c *Config) { c.Remote.MaxParallel = MaxParallelLimit + 1 }, wantErr: ErrInvalidMaxParallel},
		{name: "color scheme", mutate: func(c *Config) { c.UI.ColorScheme = "neon" }, wantErr: ErrInvalidColorScheme},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			valid, errs := cfg.IsValid()
			if tt.wantErr == nil {
				if !valid {
					t.Fatalf("IsValid() = false, %v", errs)
				}
				return
			}
			if valid {
				t.Fatal("IsValid() = true, want false")
			}
			if !errors.Is(errs[0], ErrInvalidConfig) || !errors.Is(errs[0], tt.wantErr) {
				t.Errorf("error = %v, want ErrInvalidConfig and %v", errs[0], tt.wantErr)
			}
		})
	}
}

func TestInvalidConfigErrorCollectsAllFields(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.HomeDir = " "
	cfg.Remote.MaxParallel = -1

	err := cfg.Validate()
	var ice *InvalidConfigError
	if !errors.As(err, &ice) {
		t.Fatalf("Validate() error = %T, want *InvalidConfigError", err)
	}
	if len(ice.FieldErrors) != 2 {
		t.Errorf("FieldErrors = %v, want 2 entries", ice.FieldErrors)
	}
}

func TestConfigConversions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.RuntimeDir = "/opt/nadesiko3"
	cfg.LibDir = "/lib/nako"
	cfg.Resolve.AllowReleaseRoots = true
	cfg.Remote.CacheDir = "/tmp/cache"

	rc := cfg.ResolverConfig()
	if rc.RuntimeDir != "/opt/nadesiko3" || rc.LibDir != "/lib/nako" || rc.HomeDir != "" {
		t.Errorf("ResolverConfig() dirs = %+v", rc)
	}
	if rc.Style != cfg.PathStyle || rc.PackageDirName != "node_modules" {
		t.Errorf("ResolverConfig() = %+v", rc)
	}

	req := cfg.ResolveRequest()
	if !req.AllowReleaseRoots || req.AllowNestedRoots {
		t.Errorf("ResolveRequest() = %+v", req)
	}

	cfg.Remote.FailureMarker = ""
	lc := cfg.LoaderConfig()
	if lc.CacheDir != "/tmp/cache" {
		t.Errorf("LoaderConfig().CacheDir = %q", lc.CacheDir)
	}
	if lc.FailureMarker == nil || *lc.FailureMarker != "" {
		t.Error("an empty failure marker should be passed through to disable the check")
	}
}

func TestGlobalModuleDirsEmpty(t *testing.T) {
	t.Parallel()

	if dirs := (Config{}).GlobalModuleDirs(); dirs != nil {
		t.Errorf("GlobalModuleDirs() = %v, want nil", dirs)
	}
}
