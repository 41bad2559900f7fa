// SPDX-License-Identifier: MPL-2.0

// Package runtime runs task scripts. It supplies the callables behind grove
// commands.
//
// Two runtimes are available:
//   - virtual: runs scripts in the embedded mvdan/sh interpreter
//   - native: runs scripts with the host shell (sh/bash, PowerShell or cmd)
//
// TaskInvoker adapts a script and a Runtime to registry.Invoker. Command
// arguments reach scripts as GROVE_ARG_<NAME> environment variables, and
// positional arguments also as $1..$n.
package runtime
