// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
)

// countingFs counts the bytes read from files it opens.
type countingFs struct {
	afero.Fs
	read atomic.Int64
}

type countingFile struct {
	afero.File
	fs *countingFs
}

func (c *countingFs) Open(name string) (afero.File, error) {
	f, err := c.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	return &countingFile{File: f, fs: c}, nil
}

func (f *countingFile) Read(p []byte) (int, error) {
	n, err := f.File.Read(p)
	f.fs.read.Add(int64(n))
	return n, err
}

func TestReadDescriptor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		content    string
		wantMain   string
		wantReason string
	}{
		{name: "valid", content: `{"name": "csvkit", "main": "lib/entry.lua"}`, wantMain: "lib/entry.lua"},
		{name: "not json", content: `{"main": `, wantReason: "not valid JSON"},
		{name: "array", content: `["main"]`, wantReason: "not an object"},
		{name: "no main", content: `{"name": "x"}`, wantReason: `missing "main"`},
		{name: "numeric main", content: `{"main": 1}`, wantReason: "non-empty string"},
		{name: "blank main", content: `{"main": "  "}`, wantReason: "non-empty string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "/pkg/package.json", []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			d, err := ReadDescriptor(fs, "/pkg/package.json")
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("ReadDescriptor() error = %v", err)
				}
				if d.Main != tt.wantMain || d.EntryPath() != "/pkg/"+tt.wantMain {
					t.Errorf("descriptor = %+v, entry %q", d, d.EntryPath())
				}
				return
			}
			var die *DescriptorInvalidError
			if !errors.As(err, &die) || !strings.Contains(die.Reason, tt.wantReason) {
				t.Errorf("ReadDescriptor() error = %v, want reason containing %q", err, tt.wantReason)
			}
		})
	}
}

func TestReadDescriptorStopsAtSizeLimit(t *testing.T) {
	t.Parallel()

	mem := afero.NewMemMapFs()
	big := `{"main": "index.lua", "pad": "` + strings.Repeat("x", 4*maxDescriptorSize) + `"}`
	if err := afero.WriteFile(mem, "/pkg/package.json", []byte(big), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := &countingFs{Fs: mem}

	_, err := ReadDescriptor(fs, "/pkg/package.json")
	var die *DescriptorInvalidError
	if !errors.As(err, &die) || die.Reason != "file too large" {
		t.Fatalf("ReadDescriptor() error = %v, want file too large", err)
	}
	if !errors.Is(err, ErrDescriptorInvalid) {
		t.Error("error should unwrap to ErrDescriptorInvalid")
	}
	if n := fs.read.Load(); n > maxDescriptorSize+1 {
		t.Errorf("read %d bytes, want at most %d", n, maxDescriptorSize+1)
	}
}

func TestReadDescriptorMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadDescriptor(afero.NewMemMapFs(), "/pkg/package.json")
	if !errors.Is(err, ErrDescriptorInvalid) {
		t.Errorf("ReadDescriptor() error = %v, want ErrDescriptorInvalid", err)
	}
}
