// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/invowk/nakoload/internal/issue"
	"github.com/invowk/nakoload/pkg/loader"
	"github.com/invowk/nakoload/pkg/resolve"
)

// describeError turns a library error into an ActionableError, choosing the
// catalog entry and suggestions from the error class.
func describeError(operation, resource string, err error) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		Wrap(err)

	var nf *resolve.NotFoundError
	switch {
	case errors.As(err, &nf):
		ctx.WithIssue(issue.ModuleNotFoundId).
			WithSuggestion("Check the spelling of the reference").
			WithSuggestion("Set NAKO_LIB or NAKO_HOME to the directory holding the module")
		if len(nf.Trace) > 0 {
			ctx.WithDetail(nf.Trace.String())
		}
	case errors.Is(err, resolve.ErrDescriptorInvalid):
		ctx.WithIssue(issue.DescriptorInvalidId).
			WithSuggestion(`Make sure the package descriptor is valid JSON with a string "main" field`)
	case errors.Is(err, resolve.ErrMissingRequesterContext):
		ctx.WithIssue(issue.MissingRequesterId).
			WithSuggestion("Pass --from with the file the reference appears in")
	case errors.Is(err, loader.ErrLibraryNotFound):
		ctx.WithIssue(issue.LibraryMissingId).
			WithSuggestion("Check the version in the URL").
			WithSuggestion("Set remote.failure_marker to \"\" if the library legitimately contains the marker text")
	case errors.Is(err, loader.ErrTransport):
		ctx.WithIssue(issue.TransportFailedId).
			WithSuggestion("Check the URL and your network connection")
	case errors.Is(err, loader.ErrCacheWrite):
		ctx.WithIssue(issue.CacheWriteFailedId).
			WithSuggestion("Set NAKOLOAD_CACHE_DIR to a writable directory")
	case errors.Is(err, loader.ErrNoBackend):
		ctx.WithIssue(issue.NoPluginBackendId).
			WithSuggestion("Provide the plugin as a .go or .lua file, or link it in statically")
	case errors.Is(err, loader.ErrLoad):
		ctx.WithIssue(issue.PluginLoadFailedId).
			WithSuggestion("Fix the error reported by the plugin and try again")
	}
	return ctx.Build()
}

// renderError writes ae to w. Verbose output adds the error chain and the
// catalog entry.
func renderError(w io.Writer, ae *issue.ActionableError, verbose bool) {
	fmt.Fprintln(w, ErrorStyle.Render("✗ ")+ae.Format(verbose))
	if !verbose || ae.Issue == 0 {
		return
	}
	entry := issue.Get(ae.Issue)
	if entry == nil {
		return
	}
	rendered, err := entry.Render("dark")
	if err != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", ae.Issue, "error", err)
		return
	}
	fmt.Fprint(w, rendered)
}

// fail renders err and returns the ExitError a command should return. The
// error has already been shown, so the ExitError carries only the code.
func (a *App) fail(operation, resource string, err error) error {
	renderError(a.stderr, describeError(operation, resource, err), a.verbose)
	return &ExitError{Code: ExitFailure}
}
