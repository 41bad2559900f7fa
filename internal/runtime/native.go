// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/taskgrove/grove/pkg/platform"
)

// NativeRuntime executes scripts using the host shell.
type NativeRuntime struct {
	// Shell overrides the default shell.
	Shell string
}

// NewNativeRuntime creates a new native runtime.
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() string {
	return string(RuntimeNative)
}

// Available returns whether a shell can be found.
func (r *NativeRuntime) Available() bool {
	_, err := r.shell()
	return err == nil
}

// Validate checks that there is something to run.
func (r *NativeRuntime) Validate(ctx *ExecutionContext) error {
	if strings.TrimSpace(ctx.Script) == "" {
		return ErrEmptyScript
	}
	return nil
}

// Execute runs the script with the host shell.
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	if err := r.Validate(ctx); err != nil {
		return &Result{ExitCode: 1, Error: err}
	}
	shell, err := r.shell()
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	args := append(shellArgs(shell), ctx.Script)
	args = appendPositionalArgs(shell, args, ctx.PositionalArgs)

	runCtx := ctx.Context
	if runCtx == nil {
		runCtx = context.Background()
	}
	cmd := exec.CommandContext(runCtx, shell, args...)
	cmd.Dir = ctx.WorkDir
	cmd.Env = mergedEnviron(ctx.Env)
	cmd.Stdin = ctx.IO.Stdin
	cmd.Stdout = ctx.IO.Stdout
	cmd.Stderr = ctx.IO.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Result{ExitCode: ExitCode(exitErr.ExitCode())}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to execute command: %w", err)}
	}
	return &Result{}
}

func (r *NativeRuntime) shell() (string, error) {
	if r.Shell != "" {
		return exec.LookPath(r.Shell)
	}
	if platform.IsWindows() {
		for _, name := range []string{"pwsh", "powershell", "cmd"} {
			if p, err := exec.LookPath(name); err == nil {
				return p, nil
			}
		}
		return "", fmt.Errorf("%w: no shell found", ErrRuntimeNotAvailable)
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	for _, name := range []string{"bash", "sh"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no shell found", ErrRuntimeNotAvailable)
}

func shellBase(shell string) string {
	base := filepath.Base(shell)
	if i := strings.LastIndex(base, `\`); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".exe")
}

func shellArgs(shell string) []string {
	switch shellBase(shell) {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}

// appendPositionalArgs makes args visible as $1.. for POSIX shells (with
// "grove" as $0) and as $args for PowerShell. cmd.exe gets none.
func appendPositionalArgs(shell string, args, positional []string) []string {
	if len(positional) == 0 {
		return args
	}
	switch shellBase(shell) {
	case "cmd":
		return args
	case "powershell", "pwsh":
		return append(args, positional...)
	default:
		args = append(args, "grove")
		return append(args, positional...)
	}
}
