// SPDX-License-Identifier: MPL-2.0

// Package config loads the nakoload configuration with Viper, using CUE as
// the file format.
//
// Values are layered, lowest precedence first: built-in defaults, the CUE
// file (~/.config/nakoload/config.cue or the platform equivalent, then
// ./config.cue), and finally the NAKO_LIB, NAKO_HOME, NODE_PATH,
// NAKOLOAD_RUNTIME_DIR and NAKOLOAD_CACHE_DIR environment variables. The
// file is validated against the embedded config_schema.cue before merging.
package config
