// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"fmt"

	"github.com/taskgrove/grove/internal/registry"
)

var (
	// ErrCoercion is the sentinel wrapped by CoercionError.
	ErrCoercion = errors.New("invalid argument value")
	// ErrTaskExecution is the sentinel wrapped by TaskExecutionError.
	ErrTaskExecution = errors.New("task execution failed")
	// ErrMissingDiscriminator is returned for tool input without a command path.
	ErrMissingDiscriminator = errors.New("missing command_path")
)

type (
	// CoercionError reports a raw value that does not fit its argument's type.
	CoercionError struct {
		Argument string
		Expected registry.ValueType
		Value    any
		Reason   string
	}

	// TaskExecutionError reports a failure inside a task callable.
	TaskExecutionError struct {
		Path       registry.PathKey
		Message    string
		Diagnostic string
		Err        error
	}

	// Diagnoser is implemented by invoker errors that carry a native
	// diagnostic, such as a shell exit status and stderr tail.
	Diagnoser interface {
		Diagnostic() string
	}
)

// Error implements error.
func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("argument '%s' expects %s", e.Argument, e.Expected)
	if e.Value != nil {
		msg += fmt.Sprintf(", got %q", fmt.Sprint(e.Value))
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap returns ErrCoercion.
func (e *CoercionError) Unwrap() error {
	return ErrCoercion
}

// Error implements error.
func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("command '%s' failed: %s", e.Path, e.Message)
}

// Unwrap returns the invoker error, or ErrTaskExecution for panics.
func (e *TaskExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTaskExecution}
	}
	return []error{ErrTaskExecution, e.Err}
}

func diagnosticOf(err error) string {
	var d Diagnoser
	if errors.As(err, &d) {
		return d.Diagnostic()
	}
	var b []byte
	depth := 1
	for e := err; e != nil; e = errors.Unwrap(e) {
		b = fmt.Appendf(b, "%d. %s\n", depth, e.Error())
		depth++
	}
	return string(b)
}
