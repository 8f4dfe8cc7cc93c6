// SPDX-License-Identifier: MPL-2.0

// Package importref classifies the raw reference string named by an import
// directive.
//
// Classification is a pure function of the string: it never touches the
// filesystem. Every reference has exactly one [Kind]:
//   - [KindRemoteURL]: begins with the secure URL scheme ("https://")
//   - [KindAbsolutePath]: an absolute path for the configured [Style]
//   - [KindRelativePath]: starts with "./" or "../", or contains a separator
//   - [KindBareName]: anything else, including URLs with other schemes
package importref
