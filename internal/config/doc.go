// SPDX-License-Identifier: MPL-2.0

// Package config loads grove's user configuration with Viper, using CUE as
// the file format.
//
// The file lives at config.cue in the grove config directory
// ($XDG_CONFIG_HOME/grove on Linux, ~/Library/Application Support/grove on
// macOS, %APPDATA%\grove on Windows) and is validated against the embedded
// #Config schema. Every key can also be set through a GROVE_ environment
// variable, e.g. GROVE_TOOLS_CALL_TIMEOUT=30s.
package config
