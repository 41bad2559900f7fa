// SPDX-License-Identifier: MPL-2.0

// Package serverbase provides the lifecycle state machine shared by
// long-running servers such as the stdio tool server.
//
// A Base moves through created, starting, running, stopping and stopped (or
// failed). Reads are lock-free; transitions use compare-and-swap. A Base is
// single-use: once stopped or failed, create a new one.
package serverbase
