// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/nakoload/pkg/resolve"
)

type (
	// DirectiveError attributes a resolution, load or registration failure
	// to the directive that caused it.
	DirectiveError struct {
		Directive Directive
		Err       error
	}

	// FailureSet is returned by LoadAll when at least one directive failed.
	FailureSet struct {
		Failures []*DirectiveError
	}
)

// Error implements the error interface.
func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s: import %q: %v", e.Directive.Position(), e.Directive.Ref, e.Err)
}

// Unwrap returns the underlying error.
func (e *DirectiveError) Unwrap() error { return e.Err }

// Count returns the number of failed directives.
func (s *FailureSet) Count() int { return len(s.Failures) }

// Error lists every failure; not-found failures include their search trace.
func (s *FailureSet) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d dependency failure(s)", len(s.Failures))
	for _, f := range s.Failures {
		sb.WriteString("\n")
		sb.WriteString(f.Error())
		var nf *resolve.NotFoundError
		if errors.As(f.Err, &nf) && len(nf.Trace) > 0 {
			sb.WriteString("\n")
			sb.WriteString(nf.Trace.String())
		}
	}
	return sb.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (s *FailureSet) Unwrap() []error {
	errs := make([]error, len(s.Failures))
	for i, f := range s.Failures {
		errs[i] = f
	}
	return errs
}
