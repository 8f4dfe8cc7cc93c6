// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"io"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// DefaultGoSymbol is the package-level identifier a Go plugin must export.
const DefaultGoSymbol = "Plugin"

// GoBackend interprets Go source plugins with yaegi. The plugin file is a
// single Go source file whose exported Plugin value becomes the export.
type GoBackend struct {
	// Symbol overrides the exported identifier (default: Plugin).
	Symbol string
}

// NewGoBackend returns a GoBackend with the default symbol.
func NewGoBackend() *GoBackend {
	return &GoBackend{Symbol: DefaultGoSymbol}
}

// Evaluate implements Backend.
func (b *GoBackend) Evaluate(ctx context.Context, location string, src []byte) (export any, closer io.Closer, err error) {
	pkg, err := packageName(location, src)
	if err != nil {
		return nil, nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("go plugin panic: %v", r)
		}
	}()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, nil, fmt.Errorf("load go stdlib symbols: %w", err)
	}
	if _, err := i.EvalWithContext(ctx, string(src)); err != nil {
		return nil, nil, fmt.Errorf("interpret %s: %w", location, err)
	}

	symbol := b.Symbol
	if symbol == "" {
		symbol = DefaultGoSymbol
	}
	if pkg != "main" {
		symbol = pkg + "." + symbol
	}
	v, err := i.EvalWithContext(ctx, symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s must declare %s: %v", ErrNoExport, location, symbol, err)
	}
	if !v.IsValid() || !v.CanInterface() {
		return nil, nil, fmt.Errorf("%w: %s is not a usable value", ErrNoExport, symbol)
	}
	value := v.Interface()
	if value == nil {
		return nil, nil, fmt.Errorf("%w: %s is nil", ErrNoExport, symbol)
	}
	return value, nil, nil
}

// packageName reads only the package clause of a Go source file.
func packageName(location string, src []byte) (string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), location, src, parser.PackageClauseOnly)
	if err != nil {
		return "", fmt.Errorf("parse package clause: %w", err)
	}
	return f.Name.Name, nil
}
