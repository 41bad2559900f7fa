// SPDX-License-Identifier: MPL-2.0

// Package execute turns parsed tasks into registry callables. It resolves
// the runtime and working directory of each task and merges the project and
// task environments.
package execute
