// SPDX-License-Identifier: MPL-2.0

// Package app is the composition root. Load reads configuration, discovers
// the project, loads its tasks into a frozen registry and builds the command
// tree, tool set and dispatcher that the CLI and tool server share.
package app
