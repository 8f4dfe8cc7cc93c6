// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "load configuration"},
			want: "failed to load configuration",
		},
		{
			name: "with resource",
			err:  &ActionableError{Operation: "resolve module", Resource: "plugin_csv.go"},
			want: "failed to resolve module: plugin_csv.go",
		},
		{
			name: "with cause",
			err: &ActionableError{
				Operation: "resolve module",
				Resource:  "plugin_csv.go",
				Cause:     errors.New("not found"),
			},
			want: "failed to resolve module: plugin_csv.go: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := WrapWithContext(sentinel, "load plugin", "/p/plugin_x.lua")
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the cause")
	}
	if WrapWithContext(nil, "x", "y") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	inner := errors.New("permission denied")
	err := NewErrorContext().
		WithOperation("write cache").
		WithResource("/tmp/nakoload-cache").
		WithDetail("  1. [--] cache directory: /tmp/nakoload-cache").
		WithSuggestion("Check the directory permissions").
		WithSuggestion("Set NAKOLOAD_CACHE_DIR").
		Wrap(fmtWrap(inner)).
		Build()

	plain := err.Format(false)
	for _, want := range []string{
		"failed to write cache: /tmp/nakoload-cache",
		"\n  1. [--] cache directory",
		"\n  • Check the directory permissions",
		"\n  • Set NAKOLOAD_CACHE_DIR",
	} {
		if !strings.Contains(plain, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, plain)
		}
	}
	if strings.Contains(plain, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "2. permission denied") {
		t.Errorf("Format(true) should walk the chain:\n%s", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without an operation should return nil")
	}

	ctx := NewErrorContext().WithOperation("resolve module").WithIssue(ModuleNotFoundId).WithSuggestion("a")
	first := ctx.Build()
	ctx.WithSuggestion("b")
	second := ctx.Build()

	if len(first.Suggestions) != 1 {
		t.Errorf("first.Suggestions = %v, later builder calls must not leak into it", first.Suggestions)
	}
	if len(second.Suggestions) != 2 || second.Issue != ModuleNotFoundId {
		t.Errorf("second = %+v", second)
	}
}

type wrapped struct{ err error }

func (w wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w wrapped) Unwrap() error { return w.err }

func fmtWrap(err error) error { return wrapped{err: err} }
