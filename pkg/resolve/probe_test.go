// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestProbeDistinguishesFilesAndDirectories(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/root/file.lua", "return {}")
	if err := fs.MkdirAll("/root/dir.lua", 0o755); err != nil {
		t.Fatal(err)
	}

	p := NewProbe(fs)
	if !p.File("file", "/root/file.lua") {
		t.Error("File() = false for a regular file")
	}
	if p.File("dir", "/root/dir.lua") {
		t.Error("File() = true for a directory")
	}
	if !p.Dir("dir", "/root/dir.lua") {
		t.Error("Dir() = false for a directory")
	}
	if p.File("missing", "/root/missing.lua") {
		t.Error("File() = true for a missing path")
	}

	if got := len(p.Trace()); got != 4 {
		t.Errorf("len(Trace()) = %d, want 4", got)
	}
}

func TestProbeCachesWithinItsLifetime(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p := NewProbe(fs)
	if p.File("first", "/x/plugin.lua") {
		t.Fatal("File() = true before the file exists")
	}

	// The file appears, but this probe already recorded the miss.
	writeFile(t, fs, "/x/plugin.lua", "")
	if p.File("second", "/x/plugin.lua") {
		t.Error("File() should reuse the cached miss within one probe")
	}
	if p.Cached() != 1 {
		t.Errorf("Cached() = %d, want 1", p.Cached())
	}

	// A fresh probe sees the new file.
	if !NewProbe(fs).File("fresh", "/x/plugin.lua") {
		t.Error("a new probe must not inherit cached misses")
	}
}

func TestTraceString(t *testing.T) {
	t.Parallel()

	tr := Trace{
		{Description: "requesting file directory", Path: "/a/x.lua"},
		{Description: "NAKO_LIB directory", Path: "/lib/x.lua", Found: true},
	}
	out := tr.String()
	for _, want := range []string{"1. [--] requesting file directory: /a/x.lua", "2. [ok] NAKO_LIB directory: /lib/x.lua"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() = %q, missing %q", out, want)
		}
	}
	if got := Trace(nil).String(); !strings.Contains(got, "nothing searched") {
		t.Errorf("empty String() = %q", got)
	}
}
