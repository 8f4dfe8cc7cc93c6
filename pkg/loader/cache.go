// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// CacheDirName is the directory created under the system temp dir when no
// cache directory is configured.
const CacheDirName = "nakoload-cache"

type (
	// Cache stores fetched remote artifacts under a single directory.
	// Entries are never refreshed: a URL is downloaded at most once per
	// process, and later requests reuse the file while it still exists.
	Cache struct {
		fs  afero.Fs
		dir string

		mu      sync.Mutex
		fetched map[string]string
	}

	// CacheEntry describes one file in the cache directory.
	CacheEntry struct {
		Name    string
		Path    string
		Size    int64
		ModTime time.Time
	}
)

// DefaultCacheDir returns the cache directory used when none is configured.
func DefaultCacheDir() string {
	return filepath.Join(os.TempDir(), CacheDirName)
}

// NewCache creates a cache rooted at dir on fs.
func NewCache(fs afero.Fs, dir string) *Cache {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	return &Cache{
		fs:      fs,
		dir:     dir,
		fetched: make(map[string]string),
	}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Path returns the cache file for rawURL: every non-alphanumeric character
// of the URL becomes '_' and the extension of the URL path is appended.
func (c *Cache) Path(rawURL string) string {
	return filepath.Join(c.dir, sanitizeURL(rawURL)+strings.ToLower(path.Ext(urlPath(rawURL))))
}

// Lookup returns the cached file for rawURL if this process already fetched
// it and the file still exists.
func (c *Cache) Lookup(rawURL string) (string, bool) {
	c.mu.Lock()
	p, ok := c.fetched[rawURL]
	c.mu.Unlock()
	if !ok {
		return "", false
	}
	info, err := c.fs.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

// Store writes data as the cache file for rawURL, creating the cache
// directory if needed, and marks the URL as fetched.
func (c *Cache) Store(rawURL string, data []byte) (string, error) {
	p := c.Path(rawURL)
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return "", &CacheWriteError{URL: rawURL, Path: p, Cause: err}
	}
	if err := afero.WriteFile(c.fs, p, data, 0o644); err != nil {
		return "", &CacheWriteError{URL: rawURL, Path: p, Cause: err}
	}

	c.mu.Lock()
	c.fetched[rawURL] = p
	c.mu.Unlock()

	slog.Debug("cached remote artifact", "url", rawURL, "path", p, "bytes", len(data))
	return p, nil
}

// Entries lists the files in the cache directory sorted by name.
// A missing directory yields no entries.
func (c *Cache) Entries() ([]CacheEntry, error) {
	infos, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache %s: %w", c.dir, err)
	}
	entries := make([]CacheEntry, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, CacheEntry{
			Name:    info.Name(),
			Path:    filepath.Join(c.dir, info.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	slices.SortFunc(entries, func(a, b CacheEntry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}

// Clean removes every cached file and forgets which URLs were fetched.
// It returns the number of files removed.
func (c *Cache) Clean() (int, error) {
	entries, err := c.Entries()
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, e := range entries {
		if err := c.fs.Remove(e.Path); err != nil {
			slog.Warn("failed to remove cache entry", "path", e.Path, "error", err)
			continue
		}
		removed++
	}
	clear(c.fetched)
	return removed, nil
}

func sanitizeURL(rawURL string) string {
	var sb strings.Builder
	sb.Grow(len(rawURL))
	for i := 0; i < len(rawURL); i++ {
		ch := rawURL[i]
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			sb.WriteByte(ch)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
