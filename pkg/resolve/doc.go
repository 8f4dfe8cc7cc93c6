// SPDX-License-Identifier: MPL-2.0

// Package resolve maps the reference named by an import directive to a single
// on-disk or remote artifact.
//
// # Search order
//
// Path references (absolute, or relative to the requesting file) name exactly
// one candidate and never fall back to other roots. Bare names are probed
// against an ordered list of roots and the first hit wins:
//
//  1. the requesting file's directory
//  2. the runtime release directory (only when release roots are allowed)
//  3. the runtime source directory
//  4. the NAKO_LIB directory
//  5. the runtime package directory (node_modules)
//  6. the directory above the runtime installation
//  7. vendored sub-runtime source directories (plugin extensions only, when allowed)
//  8. the NAKO_HOME release and source directories
//  9. each global module directory (NODE_PATH)
//
// A candidate directory is a package: its descriptor (package.json) must
// declare a "main" entry, which becomes the artifact. A missing descriptor
// moves the search on; an unparsable one stops it with a
// [DescriptorInvalidError].
//
// # Tracing
//
// Every resolution creates a fresh [Probe]. The probe caches filesystem lookups
// for the duration of that call only and records each lookup in a [Trace],
// which is returned in the [Resolution] and carried by [NotFoundError].
package resolve
