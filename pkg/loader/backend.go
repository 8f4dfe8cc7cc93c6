// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"io"
)

// Backend turns plugin source into an export value. The returned closer,
// if non-nil, releases interpreter state when the module is closed.
// Implementations return an error wrapping ErrNoExport when the code
// evaluates cleanly but exposes nothing.
type Backend interface {
	Evaluate(ctx context.Context, location string, src []byte) (export any, closer io.Closer, err error)
}

// DefaultBackends returns the built-in extension backends keyed by
// lower-case extension.
func DefaultBackends() map[string]Backend {
	return map[string]Backend{
		".go":  NewGoBackend(),
		".lua": NewLuaBackend(),
	}
}
