// SPDX-License-Identifier: MPL-2.0

// Package taskfile parses grove task files.
//
// A task file is a CUE document validated against the embedded #Taskfile
// schema. It declares group descriptions and a list of tasks; each task names
// its group chain (outer to inner), its arguments, optional tool prose for
// agents, and the script to run.
package taskfile
