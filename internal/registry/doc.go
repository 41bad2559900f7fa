// SPDX-License-Identifier: MPL-2.0

// Package registry holds the path-keyed command registry that every grove
// projection reads from.
//
// Commands are keyed by their PathKey: the dot-joined names of their group
// chain (outer to inner) followed by the command name. Group membership is
// attached after a command is registered, so each attachment relocates the
// command row and its argument row to the recomputed key. Arguments declared
// before their command exists are staged on a Unit and flushed when the
// command is registered.
//
// A Registry is populated once during loading, then frozen. Reads after
// Freeze need no locking.
package registry
