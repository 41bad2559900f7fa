// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/taskgrove/grove/internal/config"
	"github.com/taskgrove/grove/internal/discovery"
	"github.com/taskgrove/grove/internal/dispatch"
	"github.com/taskgrove/grove/internal/registry"
	"github.com/taskgrove/grove/internal/testutil"
)

const docsTasks = `
groups: docs: about: "Documentation tasks"
tasks: [{
	name:   "build"
	about:  "Build the docs"
	groups: ["docs"]
	arguments: [{name: "clean", long: "clean", is_flag: true}]
	script: "echo building clean=$GROVE_ARG_CLEAN in $GROVE_PROJECT_NAME"
}, {
	name:   "check_links"
	groups: ["docs"]
	tool: {description: "Check links", risk_level: "read_only"}
	script: "echo ok"
}]
`

func load(t *testing.T, root string) (*App, error) {
	t.Helper()
	return Load(context.Background(), Options{
		StartDir: root,
		Provider: config.StaticProvider{},
		Logger:   log.New(io.Discard),
	})
}

type failingProvider struct{}

func (failingProvider) Load(context.Context, config.LoadOptions) (*config.Loaded, error) {
	return nil, errors.New("bad config")
}

func TestLoad_EndToEnd(t *testing.T) {
	t.Parallel()

	root := testutil.NewProject(t, map[string]string{
		".grove/docs.cue":   docsTasks,
		".grove/grove.toml": `name = "handbook"`,
	})
	a, err := load(t, root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if a.Project == nil || a.Project.Root != root {
		t.Fatalf("Project = %+v, want root %s", a.Project, root)
	}
	if !a.Registry.Frozen() || a.Registry.Len() != 2 {
		t.Errorf("registry frozen=%v len=%d, want frozen with 2 commands", a.Registry.Frozen(), a.Registry.Len())
	}
	if _, ok := a.Registry.Lookup("docs.check-links"); !ok {
		t.Error("docs.check-links not registered")
	}
	if _, ok := a.Tools.Lookup("grove_docs_build"); !ok {
		t.Error("tool grove_docs_build not projected")
	}
	if n, ok := a.Tree.Find([]string{"docs", "build"}); !ok || !n.IsCommand() {
		t.Error("tree has no docs build command")
	}

	env := a.Dispatcher.DispatchTool(context.Background(), dispatch.ToolCall{
		Path: "docs.build",
		Args: map[string]any{"clean": true},
	})
	if env.Result != dispatch.ResultSuccess {
		t.Fatalf("envelope = %+v", env)
	}
	if got, want := strings.TrimSpace(env.CapturedStdout), "building clean=true in handbook"; got != want {
		t.Errorf("captured_stdout = %q, want %q", got, want)
	}
}

func TestLoad_NoProject(t *testing.T) {
	t.Parallel()

	a, err := load(t, t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if a.Project != nil || !errors.Is(a.ProjectErr, discovery.ErrTaskDirNotFound) {
		t.Errorf("Project = %v, ProjectErr = %v", a.Project, a.ProjectErr)
	}
	if a.Registry.Len() != 0 || !a.Registry.Frozen() {
		t.Error("registry should be empty and frozen")
	}
	if len(a.Diagnostics) != 1 || a.Diagnostics[0].Code != discovery.CodeNoProject {
		t.Errorf("Diagnostics = %+v", a.Diagnostics)
	}
}

func TestLoad_DuplicateIsFatal(t *testing.T) {
	t.Parallel()

	root := testutil.NewProject(t, map[string]string{
		".grove/a.cue": `tasks: [{name: "build", script: "echo a"}]`,
		".grove/b.cue": `tasks: [{name: "build", script: "echo b"}]`,
	})
	_, err := load(t, root)
	var regErr *registry.RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("Load() error = %v, want *registry.RegistrationError", err)
	}
}

func TestLoad_ConfigFallback(t *testing.T) {
	t.Parallel()

	a, err := Load(context.Background(), Options{
		StartDir: t.TempDir(),
		Provider: failingProvider{},
		Logger:   log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if a.Config.TasksDir != config.DefaultTasksDir {
		t.Errorf("TasksDir = %q, want default", a.Config.TasksDir)
	}
	if a.Diagnostics[0].Code != discovery.CodeConfigLoadFailed || a.Diagnostics[0].Severity != discovery.SeverityError {
		t.Errorf("Diagnostics[0] = %+v", a.Diagnostics[0])
	}

	_, err = Load(context.Background(), Options{
		ConfigPath: "/nonexistent/config.cue",
		StartDir:   t.TempDir(),
		Provider:   failingProvider{},
		Logger:     log.New(io.Discard),
	})
	if !errors.Is(err, ErrConfigLoad) {
		t.Errorf("Load() with explicit config path error = %v, want ErrConfigLoad", err)
	}
}
