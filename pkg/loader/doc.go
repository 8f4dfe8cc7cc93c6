// SPDX-License-Identifier: MPL-2.0

// Package loader retrieves the content of resolved artifacts.
//
// Source modules are returned as text. Plugins are turned into export values:
// statically registered factories are consulted first, then an extension
// backend is chosen by file extension (".go" files run in a yaegi interpreter,
// ".lua" files in a sandboxed gopher-lua state).
//
// Remote plugins are fetched once per process into a local cache directory
// and then loaded from the cached copy, so local and remote plugins share a
// single code path.
package loader
