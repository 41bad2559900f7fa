// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"io"
	"maps"
	"sync"

	"github.com/taskgrove/grove/internal/registry"
)

// stderrTailSize bounds the stderr kept for diagnostics.
const stderrTailSize = 4096

type (
	// TaskInvoker runs a task script as a registry.Invoker. Arguments reach
	// the script as GROVE_ARG_* variables; Positional arguments are also
	// passed as $1..$n in declaration order.
	TaskInvoker struct {
		Runtime    Runtime
		Script     string
		WorkDir    string
		Env        map[string]string
		Positional []string
	}

	// tailBuffer keeps the last max bytes written to it.
	tailBuffer struct {
		mu  sync.Mutex
		max int
		buf []byte
	}
)

// Invoke implements registry.Invoker. A non-zero exit yields *ExitError.
func (t *TaskInvoker) Invoke(ctx context.Context, kwargs map[string]any, streams registry.Streams) (any, error) {
	if t.Runtime == nil {
		return nil, fmt.Errorf("%w: no runtime configured", ErrRuntimeNotAvailable)
	}

	env := make(map[string]string, len(t.Env)+len(kwargs))
	maps.Copy(env, t.Env)
	for name, v := range kwargs {
		env[ArgEnvName(name)] = ArgEnvValue(v)
	}

	var positional []string
	for _, name := range t.Positional {
		switch v := kwargs[name].(type) {
		case nil:
		case []any:
			for _, item := range v {
				positional = append(positional, ArgEnvValue(item))
			}
		default:
			positional = append(positional, ArgEnvValue(v))
		}
	}

	tail := &tailBuffer{max: stderrTailSize}
	execCtx := &ExecutionContext{
		Context:        ctx,
		Script:         t.Script,
		WorkDir:        t.WorkDir,
		Env:            env,
		PositionalArgs: positional,
		IO: IOContext{
			Stdin:  streams.Stdin,
			Stdout: streams.Stdout,
			Stderr: teeWriter(streams.Stderr, tail),
		},
	}

	res := t.Runtime.Execute(execCtx)
	if res.Error != nil {
		return nil, res.Error
	}
	if !res.ExitCode.IsSuccess() {
		return nil, &ExitError{Code: res.ExitCode, StderrTail: tail.String()}
	}
	return nil, nil
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

func teeWriter(w io.Writer, tail *tailBuffer) io.Writer {
	if w == nil {
		return tail
	}
	return io.MultiWriter(w, tail)
}
