// SPDX-License-Identifier: MPL-2.0

// Package toolproj projects the flat command registry into tool descriptors
// for MCP clients: a sanitized name, an input schema carrying the exact
// PathKey as a discriminator, a description and capability hints.
//
// Sanitization is lossy. "a.b", "a b" and "a-b" all map to "grove_a_b".
// Project reports every such collision; the descriptor that survives is the
// last one in sorted PathKey order.
package toolproj
