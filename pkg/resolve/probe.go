// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"github.com/spf13/afero"
)

const (
	// EntryMissing means nothing exists at the path (or it could not be stat'ed).
	EntryMissing Entry = iota
	// EntryFile is a regular file.
	EntryFile
	// EntryDir is a directory.
	EntryDir
	// EntryOther exists but is neither a regular file nor a directory.
	EntryOther
)

type (
	// Entry is the cached filesystem state of a probed path.
	Entry int

	// Probe answers existence questions for candidate paths. It caches each
	// stat for its own lifetime and records every question in its trace.
	// A Probe belongs to a single resolution and is not safe for concurrent use.
	Probe struct {
		fs    afero.Fs
		cache map[string]Entry
		trace Trace
	}
)

// NewProbe creates an empty probe over fs.
func NewProbe(fs afero.Fs) *Probe {
	return &Probe{
		fs:    fs,
		cache: make(map[string]Entry),
	}
}

// Stat returns the entry type of path, consulting the cache first.
// It does not record a trace entry.
func (p *Probe) Stat(path string) Entry {
	if e, ok := p.cache[path]; ok {
		return e
	}
	e := EntryMissing
	if info, err := p.fs.Stat(path); err == nil {
		switch {
		case info.Mode().IsRegular():
			e = EntryFile
		case info.IsDir():
			e = EntryDir
		default:
			e = EntryOther
		}
	}
	p.cache[path] = e
	return e
}

// File reports whether path is a regular file and records the lookup.
// Directories never count as files.
func (p *Probe) File(description, path string) bool {
	found := p.Stat(path) == EntryFile
	p.record(description, path, found)
	return found
}

// Dir reports whether path is a directory and records the lookup.
func (p *Probe) Dir(description, path string) bool {
	found := p.Stat(path) == EntryDir
	p.record(description, path, found)
	return found
}

// Trace returns a copy of the lookups recorded so far.
func (p *Probe) Trace() Trace {
	out := make(Trace, len(p.trace))
	copy(out, p.trace)
	return out
}

// Cached returns the number of distinct paths stat'ed by this probe.
func (p *Probe) Cached() int { return len(p.cache) }

func (p *Probe) record(description, path string, found bool) {
	p.trace = append(p.trace, TraceEntry{Description: description, Path: path, Found: found})
}
