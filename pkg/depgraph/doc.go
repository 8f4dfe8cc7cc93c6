// SPDX-License-Identifier: MPL-2.0

// Package depgraph drives dependency loading for one compilation.
//
// The Driver scans source text for import directives, resolves each one,
// loads the artifacts concurrently, and registers the results in the order
// the directives were written. Loaded source modules are scanned in turn, so
// transitive dependencies are followed depth-first. Failures never stop the
// run: every directive is attempted and LoadAll reports all failures at once
// as a *FailureSet.
package depgraph
