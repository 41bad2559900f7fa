// SPDX-License-Identifier: MPL-2.0

// Package cliproj compiles a command tree into nested cobra commands.
//
// Group nodes become parents that require a subcommand. Command nodes become
// leaves whose flags are derived from the registry arguments stored under
// the node's recomputed path. Flag values are handed to a Handler as raw
// strings, string slices and bools; typed parsing happens in dispatch.
package cliproj
