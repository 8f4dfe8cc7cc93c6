// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the nakoload CLI commands.
//
// The CLI is a thin layer over pkg/resolve, pkg/loader and pkg/depgraph:
// it loads the configuration, builds the services from it, and renders
// results and failures. Failures are rendered as issue.ActionableError
// values; --verbose adds the matching catalog entry.
package cmd
