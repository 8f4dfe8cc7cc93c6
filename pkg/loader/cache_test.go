// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestCachePath(t *testing.T) {
	t.Parallel()

	c := NewCache(afero.NewMemMapFs(), "/cache")
	tests := []struct {
		url  string
		want string
	}{
		{
			url:  "https://cdn.example.com/a/plugin_x.lua",
			want: "https___cdn_example_com_a_plugin_x_lua.lua",
		},
		{
			url:  "https://cdn.example.com/npm/pkg@1.2.0/plugin.GO?raw=1",
			want: "https___cdn_example_com_npm_pkg_1_2_0_plugin_GO_raw_1.go",
		},
		{
			url:  "https://cdn.example.com/noext",
			want: "https___cdn_example_com_noext",
		},
	}
	for _, tt := range tests {
		if got := c.Path(tt.url); got != filepath.Join("/cache", tt.want) {
			t.Errorf("Path(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestCacheLookupRequiresFetchInThisProcess(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	c := NewCache(fs, "/cache")
	const rawURL = "https://cdn.example.com/plugin_x.lua"

	// A file left by an earlier process is not trusted.
	writeFile(t, fs, c.Path(rawURL), "return {}")
	if _, ok := c.Lookup(rawURL); ok {
		t.Error("Lookup() hit for a URL this cache never stored")
	}

	p, err := c.Store(rawURL, []byte("return { v = 1 }"))
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if got, ok := c.Lookup(rawURL); !ok || got != p {
		t.Errorf("Lookup() = %q, %v; want %q, true", got, ok, p)
	}

	// The entry disappears once the file is removed.
	if err := fs.Remove(p); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Lookup(rawURL); ok {
		t.Error("Lookup() hit after the cache file was removed")
	}
}

func TestCacheStoreIsIdempotentOnDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "cache")
	c := NewCache(afero.NewOsFs(), dir)
	for _, u := range []string{"https://a.example/x.lua", "https://b.example/y.lua"} {
		if _, err := c.Store(u, []byte("return {}")); err != nil {
			t.Fatalf("Store(%s) error = %v", u, err)
		}
	}

	entries, err := c.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Name > entries[1].Name {
		t.Errorf("Entries() = %+v, want two sorted entries", entries)
	}
}

func TestCacheClean(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	c := NewCache(fs, "/cache")
	const rawURL = "https://cdn.example.com/plugin_x.lua"
	if _, err := c.Store(rawURL, []byte("return {}")); err != nil {
		t.Fatal(err)
	}

	n, err := c.Clean()
	if err != nil || n != 1 {
		t.Fatalf("Clean() = %d, %v; want 1, nil", n, err)
	}
	if _, ok := c.Lookup(rawURL); ok {
		t.Error("Lookup() hit after Clean()")
	}
	if entries, _ := c.Entries(); len(entries) != 0 {
		t.Errorf("Entries() after Clean() = %+v", entries)
	}

	empty := NewCache(fs, "/does/not/exist")
	if n, err := empty.Clean(); err != nil || n != 0 {
		t.Errorf("Clean() on missing dir = %d, %v", n, err)
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	f := func() (any, error) { return "x", nil }
	if err := r.Register("plugin_b", f); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("plugin_a", f); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("plugin_a", f); !errors.Is(err, ErrDuplicateFactory) {
		t.Errorf("duplicate Register() error = %v, want ErrDuplicateFactory", err)
	}
	if err := r.Register(" ", f); err == nil {
		t.Error("Register() with empty name should fail")
	}

	if got := r.Names(); len(got) != 2 || got[0] != "plugin_a" || got[1] != "plugin_b" {
		t.Errorf("Names() = %v", got)
	}
	if _, ok := r.Lookup("plugin_c"); ok {
		t.Error("Lookup() hit for an unregistered name")
	}

	var nilRegistry *Registry
	if _, ok := nilRegistry.Lookup("plugin_a"); ok || nilRegistry.Names() != nil {
		t.Error("nil registry should be empty")
	}
}
