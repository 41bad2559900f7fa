// SPDX-License-Identifier: MPL-2.0

package taskfile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateTask is returned when a file declares the same task twice
// under the same group chain.
var ErrDuplicateTask = errors.New("duplicate task")

type (
	// Taskfile is one decoded task file.
	Taskfile struct {
		Groups map[string]GroupDecl `json:"groups,omitempty"`
		Tasks  []Task               `json:"tasks"`

		// FilePath is where the file was read from.
		FilePath string `json:"-"`
	}

	// GroupDecl describes a group.
	GroupDecl struct {
		About string `json:"about,omitempty"`
	}

	// Task declares one command.
	Task struct {
		Name      string            `json:"name"`
		About     string            `json:"about,omitempty"`
		LongAbout string            `json:"long_about,omitempty"`
		Groups    []string          `json:"groups,omitempty"`
		Arguments []Argument        `json:"arguments,omitempty"`
		Tool      *Tool             `json:"tool,omitempty"`
		Runtime   string            `json:"runtime,omitempty"`
		Workdir   string            `json:"workdir,omitempty"`
		Env       map[string]string `json:"env,omitempty"`
		Script    string            `json:"script"`
	}

	// Argument declares a task argument.
	Argument struct {
		Name       string    `json:"name"`
		Short      string    `json:"short,omitempty"`
		Long       string    `json:"long,omitempty"`
		IsFlag     bool      `json:"is_flag,omitempty"`
		TakesValue *bool     `json:"takes_value,omitempty"`
		Required   bool      `json:"required,omitempty"`
		Default    string    `json:"default,omitempty"`
		Multiple   *Multiple `json:"multiple,omitempty"`
		Type       string    `json:"type,omitempty"`
		Help       string    `json:"help,omitempty"`
		LongHelp   string    `json:"long_help,omitempty"`
	}

	// Multiple bounds how many values an argument takes.
	Multiple struct {
		Count int `json:"count,omitempty"`
		Min   int `json:"min,omitempty"`
		Max   int `json:"max,omitempty"`
	}

	// Tool is the prose shown to agents.
	Tool struct {
		Description  string   `json:"description"`
		RiskLevel    string   `json:"risk_level,omitempty"`
		WhenToUse    []string `json:"when_to_use,omitempty"`
		WhenNotToUse []string `json:"when_not_to_use,omitempty"`
	}
)

// CommandName returns the task name with underscores turned into dashes.
func (t *Task) CommandName() string {
	return strings.ReplaceAll(t.Name, "_", "-")
}

// IsPositional reports whether the argument is read from positional values
// rather than a flag.
func (a Argument) IsPositional() bool {
	return a.Short == "" && a.Long == "" && !a.IsFlag
}

// Ref identifies the task at index i of f for error messages.
func (f *Taskfile) Ref(i int) string {
	return fmt.Sprintf("%s:tasks[%d]", f.FilePath, i)
}

// GroupAbout returns the description declared for a group, if any.
func (f *Taskfile) GroupAbout(name string) string {
	return f.Groups[name].About
}

// Validate checks constraints the schema cannot express.
func (f *Taskfile) Validate() error {
	var errs []error
	seen := make(map[string]int, len(f.Tasks))
	for i := range f.Tasks {
		t := &f.Tasks[i]
		key := strings.Join(append(append([]string(nil), t.Groups...), t.CommandName()), " ")
		if j, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("%s: %w %q (first declared at tasks[%d])", f.Ref(i), ErrDuplicateTask, key, j))
		} else {
			seen[key] = i
		}

		args := make(map[string]bool, len(t.Arguments))
		for _, a := range t.Arguments {
			if args[a.Name] {
				errs = append(errs, fmt.Errorf("%s: argument %q declared twice", f.Ref(i), a.Name))
			}
			args[a.Name] = true
			if m := a.Multiple; m != nil && m.Max > 0 && m.Min > m.Max {
				errs = append(errs, fmt.Errorf("%s: argument %q: min %d exceeds max %d", f.Ref(i), a.Name, m.Min, m.Max))
			}
		}
	}
	return errors.Join(errs...)
}
