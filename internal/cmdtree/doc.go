// SPDX-License-Identifier: MPL-2.0

// Package cmdtree builds the hierarchical command tree from a flat registry
// by splitting PathKeys on the group separator, and renders it for display.
package cmdtree
