// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

const (
	// RuntimeVirtual is the embedded shell interpreter.
	RuntimeVirtual RuntimeType = "virtual"
	// RuntimeNative is the host shell.
	RuntimeNative RuntimeType = "native"
)

var (
	// ErrRuntimeNotAvailable is returned when a runtime cannot run on this host.
	ErrRuntimeNotAvailable = errors.New("runtime not available")
	// ErrUnknownRuntime is returned for runtime names with no registration.
	ErrUnknownRuntime = errors.New("unknown runtime")
	// ErrEmptyScript is returned when a task has no script.
	ErrEmptyScript = errors.New("script has no content to execute")
)

type (
	// RuntimeType names a runtime.
	RuntimeType string

	// IOContext holds the I/O streams of one execution.
	IOContext struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ExecutionContext is everything a runtime needs to run one script.
	ExecutionContext struct {
		Context        context.Context
		Script         string
		WorkDir        string
		Env            map[string]string
		PositionalArgs []string
		IO             IOContext
	}

	// Result is the outcome of an execution. Error is set for failures to
	// start or interpret the script, not for non-zero exits.
	Result struct {
		ExitCode ExitCode
		Error    error
	}

	// Runtime executes scripts.
	Runtime interface {
		Name() string
		Available() bool
		Validate(ctx *ExecutionContext) error
		Execute(ctx *ExecutionContext) *Result
	}

	// Registry holds the runtimes by type.
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// ParseRuntimeType validates a runtime name. The empty string yields def.
func ParseRuntimeType(s string, def RuntimeType) (RuntimeType, error) {
	switch t := RuntimeType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return def, nil
	case RuntimeVirtual, RuntimeNative:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q (expected virtual or native)", ErrUnknownRuntime, s)
	}
}

// Success reports whether the script ran and exited zero.
func (r *Result) Success() bool {
	return r.Error == nil && r.ExitCode.IsSuccess()
}

// NewRegistry creates an empty runtime registry.
func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[RuntimeType]Runtime)}
}

// DefaultRegistry registers the virtual and native runtimes.
func DefaultRegistry(nativeShell string) *Registry {
	r := NewRegistry()
	r.Register(RuntimeVirtual, NewVirtualRuntime())
	native := NewNativeRuntime()
	native.Shell = nativeShell
	r.Register(RuntimeNative, native)
	return r
}

// Register adds or replaces a runtime.
func (r *Registry) Register(typ RuntimeType, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns the runtime for typ if it is registered and available.
func (r *Registry) Get(typ RuntimeType) (Runtime, error) {
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRuntime, typ)
	}
	if !rt.Available() {
		return nil, fmt.Errorf("%w: %s", ErrRuntimeNotAvailable, typ)
	}
	return rt, nil
}

// Available returns the types of all available runtimes, sorted.
func (r *Registry) Available() []RuntimeType {
	var out []RuntimeType
	for typ, rt := range r.runtimes {
		if rt.Available() {
			out = append(out, typ)
		}
	}
	slices.Sort(out)
	return out
}

// EnvToSlice converts a map of env vars to KEY=VALUE form, sorted by key.
func EnvToSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}
