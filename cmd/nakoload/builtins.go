// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"runtime"

	"github.com/invowk/nakoload/pkg/loader"
)

// SystemPluginName is the built-in plugin every nakoload binary carries.
const SystemPluginName = "plugin_system"

// defaultBuiltins returns the statically linked plugins. Directives naming
// them never touch the filesystem.
func defaultBuiltins() *loader.Registry {
	reg := loader.NewRegistry()
	reg.MustRegister(SystemPluginName, func() (any, error) {
		return map[string]any{
			"version": Version,
			"os":      runtime.GOOS,
			"arch":    runtime.GOARCH,
		}, nil
	})
	return reg
}
