// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"path/filepath"
)

// Root is one directory in the bare-name search order.
type Root struct {
	// Description names the root in traces and diagnostics.
	Description string
	// Dir is the directory the reference is joined onto.
	Dir string
}

// Roots returns the ordered search roots for a bare name requested from
// requestingDir. Roots whose configuration is unset are omitted.
func (r *Resolver) Roots(requestingDir, ref string, req Request) []Root {
	cfg := r.cfg
	roots := make([]Root, 0, 12)
	add := func(description, dir string) {
		roots = append(roots, Root{Description: description, Dir: dir})
	}

	// (a)
	if requestingDir != "" {
		add("requesting file directory", requestingDir)
	}

	if cfg.RuntimeDir != "" {
		// (b)
		if req.AllowReleaseRoots {
			add("runtime release directory", filepath.Join(cfg.RuntimeDir, ReleaseDirName))
		}
		// (c)
		add("runtime source directory", filepath.Join(cfg.RuntimeDir, SourceDirName))
	}

	// (d)
	if cfg.LibDir != "" {
		add("NAKO_LIB directory", cfg.LibDir)
	}

	if cfg.RuntimeDir != "" {
		// (e)
		add("runtime package directory", filepath.Join(cfg.RuntimeDir, cfg.PackageDirName))
		// (f)
		add("runtime parent directory", filepath.Dir(cfg.RuntimeDir))

		// (g)
		if req.AllowNestedRoots && r.isScriptRef(ref) {
			for _, vendored := range cfg.VendoredRuntimes {
				pkg := filepath.Join(cfg.RuntimeDir, cfg.PackageDirName, vendored)
				add("vendored "+vendored+" source directory", filepath.Join(pkg, SourceDirName))
				add("vendored "+vendored+" core source directory", filepath.Join(pkg, "core", SourceDirName))
			}
		}
	}

	// (h)
	if cfg.HomeDir != "" {
		if req.AllowReleaseRoots {
			add("NAKO_HOME release directory", filepath.Join(cfg.HomeDir, ReleaseDirName))
		}
		add("NAKO_HOME source directory", filepath.Join(cfg.HomeDir, SourceDirName))
	}

	// (i)
	for _, dir := range cfg.GlobalModuleDirs {
		if dir == "" {
			continue
		}
		add("global module directory", dir)
	}

	return roots
}
