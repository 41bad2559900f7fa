// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRegistration is the sentinel wrapped by RegistrationError.
	ErrRegistration = errors.New("registration failed")
	// ErrCommandNotFound is the sentinel wrapped by LookupError.
	ErrCommandNotFound = errors.New("command not found")
	// ErrFrozen is returned for mutations after Freeze.
	ErrFrozen = errors.New("registry is frozen")
	// ErrNoCommand is returned when a group is attached to a unit that never registered a command.
	ErrNoCommand = errors.New("group attached before a command was declared")
	// ErrDuplicatePath is returned when two commands resolve to the same PathKey.
	ErrDuplicatePath = errors.New("duplicate command path")
)

type (
	// RegistrationError reports a malformed declaration. It is fatal at load time.
	RegistrationError struct {
		// Source names the offending declaration.
		Source string
		// Path is the PathKey involved, if any.
		Path PathKey
		Err  error
	}

	// LookupError reports a CLI path or tool discriminator that matches no command.
	LookupError struct {
		Path PathKey
		// Nearest is the longest registered group prefix of Path, if any.
		Nearest PathKey
	}
)

// Error implements error.
func (e *RegistrationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid declaration")
	if e.Source != "" {
		fmt.Fprintf(&b, " %s", e.Source)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the cause.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// Is matches ErrRegistration.
func (e *RegistrationError) Is(target error) bool {
	return target == ErrRegistration
}

// Error implements error.
func (e *LookupError) Error() string {
	if e.Path == "" {
		return "command not found"
	}
	return fmt.Sprintf("command '%s' not found", e.Path)
}

// Unwrap returns ErrCommandNotFound.
func (e *LookupError) Unwrap() error {
	return ErrCommandNotFound
}
