// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/taskgrove/grove/internal/registry"
	"github.com/taskgrove/grove/internal/toolproj"
)

const (
	// ResultSuccess marks a successful envelope.
	ResultSuccess = "success"
	// ResultError marks a failed envelope.
	ResultError = "error"
)

const (
	errorKindLookup    = "lookup"
	errorKindCoercion  = "coercion"
	errorKindExecution = "execution"
)

type (
	// Dispatcher routes invocations to registered commands.
	Dispatcher struct {
		reg    *registry.Registry
		logger *log.Logger
		now    func() time.Time
		newID  func() string
		// sem admits one in-flight callable.
		sem chan struct{}
	}

	// Option configures a Dispatcher.
	Option func(*Dispatcher)

	// ToolCall is a decoded call-tool request.
	ToolCall struct {
		Path registry.PathKey
		Args map[string]any
	}

	// Envelope is the structured result of a tool call.
	Envelope struct {
		InvocationID   string `json:"invocation_id"`
		Command        string `json:"command"`
		Result         string `json:"result"`
		ReturnValue    any    `json:"return_value,omitempty"`
		Error          string `json:"error,omitempty"`
		ErrorKind      string `json:"error_kind,omitempty"`
		Diagnostic     string `json:"diagnostic,omitempty"`
		CapturedStdout string `json:"captured_stdout"`
		CapturedStderr string `json:"captured_stderr"`
		Timestamp      string `json:"timestamp"`
	}
)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithClock sets the time source for envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithIDGenerator sets the invocation id source.
func WithIDGenerator(fn func() string) Option {
	return func(d *Dispatcher) {
		d.newID = fn
	}
}

// New creates a Dispatcher over a loaded registry.
func New(reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:    reg,
		logger: log.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
		sem:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve looks up the command at path together with its arguments.
func (d *Dispatcher) Resolve(path registry.PathKey) (*registry.Command, []registry.Argument, error) {
	cmd, ok := d.reg.Lookup(path)
	if !ok {
		return nil, nil, &registry.LookupError{Path: path, Nearest: d.nearestGroup(path)}
	}
	return cmd, d.reg.ArgumentsOf(path), nil
}

// DispatchCLI runs the command addressed by segments. Output goes straight to
// streams.
func (d *Dispatcher) DispatchCLI(ctx context.Context, segments []string, raw map[string]any, streams registry.Streams) (any, error) {
	path := registry.PathKey(strings.Join(segments, registry.Separator))
	cmd, args, err := d.Resolve(path)
	if err != nil {
		return nil, err
	}
	kwargs, err := Coerce(args, raw)
	if err != nil {
		return nil, err
	}
	return d.invoke(ctx, path, cmd, kwargs, streams)
}

// DispatchTool runs a tool call with captured output and always returns an
// envelope.
func (d *Dispatcher) DispatchTool(ctx context.Context, call ToolCall) Envelope {
	env := Envelope{
		InvocationID: d.newID(),
		Command:      call.Path.String(),
	}
	finish := func() Envelope {
		env.Timestamp = d.now().UTC().Format(time.RFC3339)
		return env
	}

	cmd, args, err := d.Resolve(call.Path)
	if err != nil {
		d.fail(&env, errorKindLookup, err)
		return finish()
	}
	kwargs, err := Coerce(args, call.Args)
	if err != nil {
		d.fail(&env, errorKindCoercion, err)
		return finish()
	}
	for name := range call.Args {
		if !hasArgument(args, name) {
			d.logger.Debug("ignoring undeclared argument", "command", call.Path, "argument", name)
		}
	}

	var stdout, stderr bytes.Buffer
	value, err := d.invoke(ctx, call.Path, cmd, kwargs, registry.Streams{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	env.CapturedStdout = stdout.String()
	env.CapturedStderr = stderr.String()
	if err != nil {
		d.fail(&env, errorKindExecution, err)
		return finish()
	}

	env.Result = ResultSuccess
	if value == nil {
		value = fmt.Sprintf("Command '%s' executed successfully", cmd.Name)
	}
	env.ReturnValue = value
	return finish()
}

// invoke runs the callable under the execution slot. Errors and panics come
// back as *TaskExecutionError, context errors while queued as-is.
func (d *Dispatcher) invoke(ctx context.Context, path registry.PathKey, cmd *registry.Command, kwargs map[string]any, streams registry.Streams) (value any, err error) {
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting to run %s: %w", path, ctx.Err())
	}
	defer func() { <-d.sem }()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("task panicked", "command", path, "panic", r)
			value = nil
			err = &TaskExecutionError{
				Path:       path,
				Message:    fmt.Sprint(r),
				Diagnostic: string(debug.Stack()),
			}
		}
	}()

	if cmd.Invoker == nil {
		return nil, &TaskExecutionError{Path: path, Message: "command has no callable"}
	}

	d.logger.Debug("invoking task", "command", path, "arguments", len(kwargs))
	started := d.now()
	value, err = cmd.Invoker.Invoke(ctx, kwargs, streams)
	if err != nil {
		var execErr *TaskExecutionError
		if errors.As(err, &execErr) {
			return nil, execErr
		}
		return nil, &TaskExecutionError{
			Path:       path,
			Message:    err.Error(),
			Diagnostic: diagnosticOf(err),
			Err:        err,
		}
	}
	d.logger.Debug("task finished", "command", path, "elapsed", d.now().Sub(started))
	return value, nil
}

func (d *Dispatcher) fail(env *Envelope, kind string, err error) {
	env.Result = ResultError
	env.Error = err.Error()
	env.ErrorKind = kind
	var execErr *TaskExecutionError
	if errors.As(err, &execErr) {
		env.Diagnostic = execErr.Diagnostic
	}
	d.logger.Info("tool call failed", "command", env.Command, "kind", kind, "err", err)
}

// nearestGroup returns the longest prefix of path that is a group of some
// registered command.
func (d *Dispatcher) nearestGroup(path registry.PathKey) registry.PathKey {
	segments := path.Segments()
	for n := len(segments) - 1; n > 0; n-- {
		prefix := strings.Join(segments[:n], registry.Separator) + registry.Separator
		for _, p := range d.reg.Paths() {
			if strings.HasPrefix(p.String(), prefix) {
				return registry.PathKey(strings.TrimSuffix(prefix, registry.Separator))
			}
		}
	}
	return ""
}

func hasArgument(args []registry.Argument, name string) bool {
	for _, a := range args {
		if a.Name == name {
			return true
		}
	}
	return false
}

// ParseToolArguments decodes call-tool arguments. fallback is used when the
// discriminator is absent, e.g. the path resolved from the tool name.
func ParseToolArguments(arguments map[string]any, fallback registry.PathKey) (ToolCall, error) {
	call := ToolCall{Path: fallback}
	if raw, ok := arguments[toolproj.DiscriminatorField]; ok {
		s, isString := raw.(string)
		if !isString {
			return ToolCall{}, fmt.Errorf("%s must be a string, got %T", toolproj.DiscriminatorField, raw)
		}
		call.Path = registry.PathKey(s)
	}
	if call.Path == "" {
		return ToolCall{}, ErrMissingDiscriminator
	}
	if raw, ok := arguments[toolproj.ArgsField]; ok && raw != nil {
		args, isObject := raw.(map[string]any)
		if !isObject {
			return ToolCall{}, fmt.Errorf("%s must be an object, got %T", toolproj.ArgsField, raw)
		}
		call.Args = args
	}
	return call, nil
}
