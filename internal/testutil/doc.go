// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test helpers: a controllable clock and
// filesystem fixtures for project trees.
package testutil
