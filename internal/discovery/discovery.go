// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/taskgrove/grove/internal/config"
	"github.com/taskgrove/grove/pkg/taskfile"
)

const (
	// EnvProjectRoot is set for every task to the project root.
	EnvProjectRoot = "GROVE_PROJECT_ROOT"
	// EnvProjectName is set for every task to the manifest name, when present.
	EnvProjectName = "GROVE_PROJECT_NAME"
)

// ErrTaskDirNotFound is returned when no parent directory holds a task dir.
var ErrTaskDirNotFound = errors.New("no task directory found")

type (
	// Discovery locates a project starting from a directory.
	Discovery struct {
		tasksDir string
		startDir string
	}

	// Project is a located grove project.
	Project struct {
		// Root is the directory containing the task directory; scripts run here.
		Root string
		// Dir is the task directory itself.
		Dir      string
		Manifest *Manifest
		// Env holds the variables every task receives.
		Env map[string]string
	}

	// DiscoveredFile is a task file found in the task directory.
	DiscoveredFile struct {
		Path     string
		Taskfile *taskfile.Taskfile
		// Error is set when the file failed to parse; Taskfile is then nil.
		Error error
	}

	// Result bundles the project, its task files and non-fatal diagnostics.
	Result struct {
		Project     *Project
		Files       []*DiscoveredFile
		Diagnostics []Diagnostic
	}
)

// New creates a Discovery that starts at startDir, or the working directory
// when startDir is empty.
func New(cfg *config.Config, startDir string) *Discovery {
	tasksDir := config.DefaultTasksDir
	if cfg != nil && cfg.TasksDir != "" {
		tasksDir = cfg.TasksDir
	}
	return &Discovery{tasksDir: tasksDir, startDir: startDir}
}

// FindProjectDir returns the nearest task directory at or above the start
// directory. An absolute tasks_dir is used as is.
func (d *Discovery) FindProjectDir() (string, error) {
	if filepath.IsAbs(d.tasksDir) {
		if isDir(d.tasksDir) {
			return d.tasksDir, nil
		}
		return "", fmt.Errorf("%w: %s", ErrTaskDirNotFound, d.tasksDir)
	}

	dir := d.startDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, d.tasksDir)
		if isDir(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: searched for %s from %s upward", ErrTaskDirNotFound, d.tasksDir, d.startDirOrWD())
		}
		dir = parent
	}
}

// Discover locates the project and parses every task file in it. Files
// that fail to parse are reported as diagnostics and skipped.
func (d *Discovery) Discover() (*Result, error) {
	dir, err := d.FindProjectDir()
	if err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	res := &Result{Project: &Project{Root: filepath.Dir(dir), Dir: dir, Manifest: manifest}}
	res.Project.Env = d.projectEnv(res)

	paths, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	for _, p := range paths {
		df := &DiscoveredFile{Path: p}
		df.Taskfile, df.Error = taskfile.Parse(p)
		if df.Error != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeTaskfileSkipped,
				Message:  fmt.Sprintf("skipping task file %s", filepath.Base(p)),
				Path:     p,
				Cause:    df.Error,
			})
		}
		res.Files = append(res.Files, df)
	}
	return res, nil
}

// Taskfiles returns the successfully parsed files.
func (r *Result) Taskfiles() []*taskfile.Taskfile {
	var out []*taskfile.Taskfile
	for _, f := range r.Files {
		if f.Taskfile != nil {
			out = append(out, f.Taskfile)
		}
	}
	return out
}

// projectEnv layers manifest variables, then .env, then the project
// variables grove sets itself.
func (d *Discovery) projectEnv(res *Result) map[string]string {
	p := res.Project
	env := make(map[string]string)
	maps.Copy(env, p.Manifest.Env)

	dotenv, err := LoadDotEnv(p.Dir)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeDotEnvSkipped,
			Message:  "ignoring unreadable .env file",
			Path:     filepath.Join(p.Dir, DotEnvFileName),
			Cause:    err,
		})
	}
	maps.Copy(env, dotenv)

	env[EnvProjectRoot] = p.Root
	if name := strings.TrimSpace(p.Manifest.Name); name != "" {
		env[EnvProjectName] = name
	}
	return env
}

func (d *Discovery) startDirOrWD() string {
	if d.startDir != "" {
		return d.startDir
	}
	wd, _ := os.Getwd()
	return wd
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
