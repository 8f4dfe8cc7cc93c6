// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for the command line and a
// catalog of Markdown remediation guides, one per failure class.
package issue
