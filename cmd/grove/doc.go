// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the grove CLI.
//
// The root command carries the built-in subcommands (tree, tools, mcp, watch,
// config and the hidden completion helpers) and the task commands projected
// from the project's registry. Everything is wired by internal/app before
// cobra parses the command line.
package cmd
