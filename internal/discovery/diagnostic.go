// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error.
	SeverityError Severity = "error"
)

const (
	// CodeConfigLoadFailed marks a configuration that could not be loaded;
	// defaults apply.
	CodeConfigLoadFailed = "config_load_failed"
	// CodeNoProject marks a run outside any project directory.
	CodeNoProject = "no_project"
	// CodeTaskfileSkipped marks a task file that failed to parse.
	CodeTaskfileSkipped = "taskfile_parse_skipped"
	// CodeDotEnvSkipped marks a .env file that could not be read.
	CodeDotEnvSkipped = "dotenv_skipped"
	// CodePositionalShadowed marks a command whose positional arguments
	// compete with subcommands of the same name.
	CodePositionalShadowed = "positional_args_shadowed"
)

type (
	// Severity is a diagnostic level.
	Severity string

	// Diagnostic is a non-fatal discovery finding, returned to callers
	// rather than printed so the CLI decides how to render it.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier, e.g. CodeTaskfileSkipped.
		Code    string
		Message string
		Path    string
		Cause   error
	}
)
