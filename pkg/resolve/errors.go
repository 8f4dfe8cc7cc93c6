// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"

	"github.com/invowk/nakoload/pkg/importref"
)

var (
	// ErrNotFound is the sentinel error wrapped by NotFoundError.
	ErrNotFound = errors.New("module not found")
	// ErrDescriptorInvalid is the sentinel error wrapped by DescriptorInvalidError.
	ErrDescriptorInvalid = errors.New("package descriptor invalid")
	// ErrMissingRequesterContext is the sentinel error wrapped by MissingRequesterContextError.
	ErrMissingRequesterContext = errors.New("missing requesting file")
)

type (
	// NotFoundError is returned when no candidate matched. Trace lists every
	// path that was probed, in order.
	NotFoundError struct {
		Ref   string
		Kind  importref.Kind
		Trace Trace
	}

	// DescriptorInvalidError is returned when a package descriptor exists but
	// cannot be used: it is not valid JSON or lacks a string "main" entry.
	DescriptorInvalidError struct {
		Path   string
		Reason string
		Cause  error
	}

	// MissingRequesterContextError is returned when a relative or bare
	// reference arrives without a requesting file to anchor the search.
	MissingRequesterContextError struct {
		Ref string
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found (searched %d location(s))", e.Kind, e.Ref, len(e.Trace))
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Error implements the error interface.
func (e *DescriptorInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("package descriptor %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("package descriptor %s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrDescriptorInvalid and the underlying cause, if any.
func (e *DescriptorInvalidError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrDescriptorInvalid, e.Cause}
	}
	return []error{ErrDescriptorInvalid}
}

// Error implements the error interface.
func (e *MissingRequesterContextError) Error() string {
	return fmt.Sprintf("cannot resolve %q: no requesting file to search from", e.Ref)
}

// Unwrap returns ErrMissingRequesterContext for errors.Is() compatibility.
func (e *MissingRequesterContextError) Unwrap() error { return ErrMissingRequesterContext }
