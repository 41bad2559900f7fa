// SPDX-License-Identifier: MPL-2.0

// Package toolserver serves the projected tool set over MCP stdio.
//
// Each descriptor becomes one MCP tool. A call-tool request is decoded with
// dispatch.ParseToolArguments, run by the shared Dispatcher under a per-call
// timeout, and answered with the JSON result envelope. Stdout carries the
// protocol; all logging goes to the injected logger, which must not write to
// stdout.
package toolserver
