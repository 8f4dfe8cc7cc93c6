// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/invowk/nakoload/pkg/loader"
)

type (
	// Plugin is a loaded plugin ready to be registered with the compiler.
	Plugin struct {
		Name      string
		Location  string
		Export    any
		Directive Directive
		Module    *loader.Module
	}

	// Source is a loaded source module whose text goes back to the parser.
	Source struct {
		Location  string
		Text      string
		Directive Directive
	}

	// Registry receives the results of a dependency run.
	Registry interface {
		RegisterPlugin(p Plugin) error
		RegisterSource(s Source) error
	}

	// MemoryRegistry keeps registrations in order. Plugin names must be unique.
	MemoryRegistry struct {
		mu      sync.Mutex
		plugins []Plugin
		sources []Source
	}
)

// ErrDuplicatePlugin is returned when two different locations register the
// same plugin name.
var ErrDuplicatePlugin = errors.New("plugin name already registered")

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{}
}

// RegisterPlugin implements Registry.
func (r *MemoryRegistry) RegisterPlugin(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.plugins {
		if existing.Name == p.Name {
			return fmt.Errorf("%w: %s (from %s, already loaded from %s)", ErrDuplicatePlugin, p.Name, p.Location, existing.Location)
		}
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// RegisterSource implements Registry.
func (r *MemoryRegistry) RegisterSource(s Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, s)
	return nil
}

// Plugins returns the registered plugins in registration order.
func (r *MemoryRegistry) Plugins() []Plugin {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.plugins)
}

// Sources returns the registered source modules in registration order.
func (r *MemoryRegistry) Sources() []Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sources)
}

// Plugin returns the plugin registered under name.
func (r *MemoryRegistry) Plugin(name string) (Plugin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plugins {
		if p.Name == name {
			return p, true
		}
	}
	return Plugin{}, false
}

// Close releases every registered plugin module.
func (r *MemoryRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, p := range r.plugins {
		if err := p.Module.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close plugin %s: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}
