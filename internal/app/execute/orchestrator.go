// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/taskgrove/grove/internal/config"
	"github.com/taskgrove/grove/internal/discovery"
	"github.com/taskgrove/grove/internal/registry"
	"github.com/taskgrove/grove/internal/runtime"
	"github.com/taskgrove/grove/pkg/taskfile"
)

// ErrEmptyScript is the sentinel wrapped by EmptyScriptError.
var ErrEmptyScript = errors.New("task has no script")

type (
	// EmptyScriptError reports a task whose script is blank.
	EmptyScriptError struct {
		Ref string
	}

	// Factory builds TaskInvokers for the tasks of one project.
	Factory struct {
		Project  *discovery.Project
		Config   *config.Config
		Runtimes *runtime.Registry
	}
)

// Error implements error.
func (e *EmptyScriptError) Error() string {
	return fmt.Sprintf("%s: task has no script", e.Ref)
}

// Unwrap returns ErrEmptyScript.
func (e *EmptyScriptError) Unwrap() error { return ErrEmptyScript }

// ResolveRuntime picks the runtime of a task: its own runtime field, then the
// configured default, then virtual.
func ResolveRuntime(task *taskfile.Task, cfg *config.Config) (runtime.RuntimeType, error) {
	def := runtime.RuntimeVirtual
	if cfg != nil && cfg.DefaultRuntime != "" {
		configured, err := runtime.ParseRuntimeType(string(cfg.DefaultRuntime), def)
		if err != nil {
			return "", fmt.Errorf("invalid default_runtime in config: %w", err)
		}
		def = configured
	}
	return runtime.ParseRuntimeType(task.Runtime, def)
}

// ResolveWorkDir returns the directory a task runs in. A relative workdir is
// taken from the project root.
func ResolveWorkDir(root, workdir string) string {
	switch {
	case workdir == "":
		return root
	case filepath.IsAbs(workdir):
		return filepath.Clean(workdir)
	default:
		return filepath.Join(root, filepath.FromSlash(workdir))
	}
}

// MergeEnv layers task variables over project variables.
func MergeEnv(project, task map[string]string) map[string]string {
	out := make(map[string]string, len(project)+len(task))
	maps.Copy(out, project)
	maps.Copy(out, task)
	return out
}

// PositionalNames lists the positional arguments of a task in declaration
// order.
func PositionalNames(task *taskfile.Task) []string {
	var out []string
	for _, a := range task.Arguments {
		if a.IsPositional() {
			out = append(out, a.Name)
		}
	}
	return out
}

// Invoker implements discovery.InvokerFactory.
func (f *Factory) Invoker(task *taskfile.Task, file *taskfile.Taskfile) (registry.Invoker, error) {
	ref := task.Name
	if file != nil {
		for i := range file.Tasks {
			if &file.Tasks[i] == task {
				ref = file.Ref(i)
				break
			}
		}
	}
	if strings.TrimSpace(task.Script) == "" {
		return nil, &EmptyScriptError{Ref: ref}
	}

	typ, err := ResolveRuntime(task, f.Config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	rt, err := f.Runtimes.Get(typ)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}

	root, projectEnv := "", map[string]string(nil)
	if f.Project != nil {
		root, projectEnv = f.Project.Root, f.Project.Env
	}
	return &runtime.TaskInvoker{
		Runtime:    rt,
		Script:     task.Script,
		WorkDir:    ResolveWorkDir(root, task.Workdir),
		Env:        MergeEnv(projectEnv, task.Env),
		Positional: PositionalNames(task),
	}, nil
}
