// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"fmt"
	"regexp"
	"strings"
)

type (
	// Directive is one import request found in source text.
	Directive struct {
		// Ref is the module reference as written.
		Ref string
		// File is the requesting file. It anchors relative and bare references.
		File string
		// Line is 1-based; 0 means the directive came from prefix code.
		Line int
	}

	// Scanner extracts import directives from source text.
	Scanner interface {
		Scan(text, file string) []Directive
	}

	// NakoScanner recognizes the import statement of the source language:
	// a "!" (ASCII or full-width) followed by a quoted reference in 「」, 『』
	// or "" brackets, followed by を取り込む.
	NakoScanner struct{}
)

var importPattern = regexp.MustCompile(`[!！]\s*(?:「([^」]*)」|『([^』]*)』|"([^"]*)")\s*を取り込む`)

// Position returns "file:line".
func (d Directive) Position() string {
	return fmt.Sprintf("%s:%d", d.File, d.Line)
}

// Scan implements Scanner. Directives are returned in the order they appear.
func (NakoScanner) Scan(text, file string) []Directive {
	var out []Directive
	for i, line := range strings.Split(text, "\n") {
		for _, m := range importPattern.FindAllStringSubmatch(line, -1) {
			ref := strings.TrimSpace(m[1] + m[2] + m[3])
			if ref == "" {
				continue
			}
			out = append(out, Directive{Ref: ref, File: file, Line: i + 1})
		}
	}
	return out
}
