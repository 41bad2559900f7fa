// SPDX-License-Identifier: MPL-2.0

// Package dispatch resolves a CLI path or a tool discriminator to one
// registered command, coerces raw values by argument type and invokes the
// command's callable.
//
// Tool calls capture everything the callable writes and return it in an
// Envelope. CLI calls stream output live. Failures inside the callable,
// panics included, surface as *TaskExecutionError and never unwind past the
// Dispatcher. At most one callable runs at a time; later calls queue.
package dispatch
