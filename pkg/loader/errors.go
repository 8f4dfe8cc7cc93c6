// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
)

const (
	// PhaseRead covers reading the artifact bytes from disk.
	PhaseRead Phase = "read"
	// PhaseEvaluate covers compiling and running plugin code.
	PhaseEvaluate Phase = "evaluate"
	// PhaseExport covers extracting the export value after evaluation.
	PhaseExport Phase = "export"
	// PhaseBackend means no backend accepts the artifact.
	PhaseBackend Phase = "backend"
)

var (
	// ErrTransport is the sentinel error wrapped by TransportError.
	ErrTransport = errors.New("remote fetch failed")
	// ErrLibraryNotFound is wrapped by TransportError when a successful
	// response body carries the configured failure marker.
	ErrLibraryNotFound = errors.New("library not found at this URL")
	// ErrBodyTooLarge is wrapped by TransportError when a response exceeds
	// the size limit for a remote artifact.
	ErrBodyTooLarge = errors.New("response body too large")
	// ErrCacheWrite is the sentinel error wrapped by CacheWriteError.
	ErrCacheWrite = errors.New("cache write failed")
	// ErrLoad is the sentinel error wrapped by LoadError.
	ErrLoad = errors.New("plugin load failed")
	// ErrNoBackend is wrapped by LoadError when no backend handles the extension.
	ErrNoBackend = errors.New("no plugin backend for extension")
	// ErrNoExport is returned by backends when the evaluated code exposes
	// nothing to register.
	ErrNoExport = errors.New("plugin has no export")
	// ErrDuplicateFactory is returned when a static plugin name is registered twice.
	ErrDuplicateFactory = errors.New("plugin factory already registered")
)

type (
	// Phase names the step of a load that failed.
	Phase string

	// TransportError is returned when a remote fetch fails: the transport
	// itself failed (Cause set), the server answered with a non-success
	// status, or the body carried the failure marker (MarkerFound).
	TransportError struct {
		URL         string
		StatusCode  int
		Status      string
		MarkerFound bool
		Cause       error
	}

	// CacheWriteError is returned when a fetched artifact cannot be
	// persisted into the cache directory.
	CacheWriteError struct {
		URL   string
		Path  string
		Cause error
	}

	// LoadError is returned when an artifact exists but cannot be turned
	// into a module.
	LoadError struct {
		Location string
		Phase    Phase
		Cause    error
	}
)

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.MarkerFound:
		return fmt.Sprintf("fetch %s: server reported the library is missing", e.URL)
	case e.Cause != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Status)
	}
}

// Unwrap returns ErrTransport plus ErrLibraryNotFound or the transport cause.
func (e *TransportError) Unwrap() []error {
	errs := []error{ErrTransport}
	if e.MarkerFound {
		errs = append(errs, ErrLibraryNotFound)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Error implements the error interface.
func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache %s as %s: %v", e.URL, e.Path, e.Cause)
}

// Unwrap returns ErrCacheWrite and the underlying cause.
func (e *CacheWriteError) Unwrap() []error { return []error{ErrCacheWrite, e.Cause} }

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Location, e.Phase, e.Cause)
}

// Unwrap returns ErrLoad and the underlying cause.
func (e *LoadError) Unwrap() []error { return []error{ErrLoad, e.Cause} }
