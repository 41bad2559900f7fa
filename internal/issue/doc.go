// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors for grove.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for fixing it. Issue is a catalog of Markdown help pages,
// rendered with glamour, for the failures users hit most.
package issue
