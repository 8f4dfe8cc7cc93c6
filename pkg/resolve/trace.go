// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"strings"
)

type (
	// TraceEntry records one filesystem lookup made during a resolution.
	TraceEntry struct {
		// Description names the search step (e.g. "runtime source directory").
		Description string
		// Path is the absolute path that was probed.
		Path string
		// Found reports whether the path matched what the step was looking for.
		Found bool
	}

	// Trace is the ordered list of lookups made by one resolution.
	Trace []TraceEntry
)

// String renders the trace as a numbered listing, one lookup per line.
func (t Trace) String() string {
	if len(t) == 0 {
		return "  (nothing searched)"
	}
	var sb strings.Builder
	for i, e := range t {
		mark := "--"
		if e.Found {
			mark = "ok"
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "  %2d. [%s] %s: %s", i+1, mark, e.Description, e.Path)
	}
	return sb.String()
}

// Paths returns the probed paths in order.
func (t Trace) Paths() []string {
	paths := make([]string, len(t))
	for i, e := range t {
		paths[i] = e.Path
	}
	return paths
}
