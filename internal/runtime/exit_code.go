// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

type (
	// ExitCode represents a process exit status code. Zero means success.
	ExitCode int

	// ExitError reports a script that finished with a non-zero status.
	// StderrTail holds the last bytes the script wrote to stderr.
	ExitError struct {
		Code       ExitCode
		StderrTail string
	}
)

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// Error implements error.
func (e *ExitError) Error() string {
	return fmt.Sprintf("script exited with status %d", e.Code)
}

// Diagnostic returns the exit status and the stderr tail.
func (e *ExitError) Diagnostic() string {
	tail := strings.TrimRight(e.StderrTail, "\n")
	if tail == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("exit status %d\nstderr:\n%s", e.Code, tail)
}
