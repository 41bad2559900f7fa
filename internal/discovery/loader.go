// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/taskgrove/grove/internal/cmdtree"
	"github.com/taskgrove/grove/internal/registry"
	"github.com/taskgrove/grove/pkg/taskfile"
)

type (
	// InvokerFactory builds the callable for a task.
	InvokerFactory func(task *taskfile.Task, file *taskfile.Taskfile) (registry.Invoker, error)

	// Loader registers parsed tasks into a registry.
	Loader struct {
		Registry *registry.Registry
		Factory  InvokerFactory
		Logger   *log.Logger
	}

	declaration struct {
		file  *taskfile.Taskfile
		index int
		task  *taskfile.Task
	}
)

// Load registers every task of files and freezes the registry. Tasks with
// the longest group chains go first, so a task's intermediate keys never
// meet keys already settled by shallower tasks. A RegistrationError stops
// loading.
func (l *Loader) Load(files []*taskfile.Taskfile) ([]Diagnostic, error) {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}

	abouts := groupAbouts(files)
	decls := declarations(files)
	for _, d := range decls {
		if err := l.register(d, abouts); err != nil {
			return nil, err
		}
		logger.Debug("registered task", "source", d.file.Ref(d.index), "groups", d.task.Groups, "name", d.task.CommandName())
	}
	l.Registry.Freeze()
	logger.Debug("registry frozen", "commands", l.Registry.Len())

	return shadowedPositionals(l.Registry), nil
}

func (l *Loader) register(d declaration, abouts map[string]string) error {
	t := d.task
	source := d.file.Ref(d.index)

	u := registry.NewUnit(source)
	for _, a := range t.Arguments {
		u.AddArgument(argumentSpec(a))
	}

	var inv registry.Invoker
	if l.Factory != nil {
		var err error
		if inv, err = l.Factory(t, d.file); err != nil {
			return &registry.RegistrationError{Source: source, Err: err}
		}
	}

	cmd := &registry.Command{
		Name:      t.CommandName(),
		About:     t.About,
		LongAbout: t.LongAbout,
		Tool:      toolDescription(t.Tool),
		Invoker:   inv,
		Source:    source,
	}
	if _, err := l.Registry.RegisterCommand(u, cmd); err != nil {
		return err
	}

	// Innermost first, so the chain ends up outer to inner.
	for i := len(t.Groups) - 1; i >= 0; i-- {
		name := t.Groups[i]
		about := d.file.GroupAbout(name)
		if about == "" {
			about = abouts[name]
		}
		if _, _, err := l.Registry.AttachGroup(u, registry.Group{Name: name, About: about}); err != nil {
			return err
		}
	}
	return nil
}

// declarations flattens files into tasks, deepest group chain first and
// otherwise in file order.
func declarations(files []*taskfile.Taskfile) []declaration {
	var out []declaration
	for _, f := range files {
		for i := range f.Tasks {
			out = append(out, declaration{file: f, index: i, task: &f.Tasks[i]})
		}
	}
	slices.SortStableFunc(out, func(a, b declaration) int {
		return cmp.Compare(len(b.task.Groups), len(a.task.Groups))
	})
	return out
}

// groupAbouts collects group descriptions; the first file to describe a
// group wins.
func groupAbouts(files []*taskfile.Taskfile) map[string]string {
	out := make(map[string]string)
	for _, f := range files {
		names := make([]string, 0, len(f.Groups))
		for name := range f.Groups {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if _, ok := out[name]; !ok && f.Groups[name].About != "" {
				out[name] = f.Groups[name].About
			}
		}
	}
	return out
}

func argumentSpec(a taskfile.Argument) registry.ArgumentSpec {
	spec := registry.ArgumentSpec{
		Name:         a.Name,
		Short:        a.Short,
		Long:         a.Long,
		IsFlag:       a.IsFlag,
		TakesValue:   a.TakesValue,
		Required:     a.Required,
		DefaultValue: a.Default,
		ValueType:    registry.NormalizeValueType(a.Type),
		Help:         a.Help,
		LongHelp:     a.LongHelp,
	}
	if m := a.Multiple; m != nil {
		spec.Multiplicity = &registry.Multiplicity{Count: m.Count, Min: m.Min, Max: m.Max}
	}
	return spec
}

func toolDescription(t *taskfile.Tool) *registry.ToolDescription {
	if t == nil {
		return nil
	}
	return &registry.ToolDescription{
		Description:  t.Description,
		RiskLevel:    registry.RiskLevel(t.RiskLevel),
		WhenToUse:    slices.Clone(t.WhenToUse),
		WhenNotToUse: slices.Clone(t.WhenNotToUse),
	}
}

// shadowedPositionals warns about commands that are also groups and take
// positional arguments: a value matching a subcommand name runs the
// subcommand instead.
func shadowedPositionals(reg *registry.Registry) []Diagnostic {
	var out []Diagnostic
	root := cmdtree.Build(reg)
	for _, path := range root.Flatten() {
		n, ok := root.Find(path.Segments())
		if !ok || !n.IsGroup() {
			continue
		}
		for _, a := range reg.ArgumentsOf(n.Path()) {
			if a.IsPositional() {
				out = append(out, Diagnostic{
					Severity: SeverityWarning,
					Code:     CodePositionalShadowed,
					Message:  fmt.Sprintf("command %q has subcommands; positional argument %q cannot take a subcommand name", n.Path(), a.Name),
					Path:     n.Command.Source,
				})
				break
			}
		}
	}
	return out
}
