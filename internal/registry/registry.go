// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type (
	// Unit is a pending declaration. It stages argument specs until its
	// command is registered, then identifies that command for group
	// attachment.
	Unit struct {
		source  string
		pending []ArgumentSpec
		command *Command
	}

	// Registry maps PathKeys to commands and their arguments.
	//
	// Mutations are not synchronized; a registry is populated by a single
	// loader and then frozen.
	Registry struct {
		commands  map[PathKey]*Command
		arguments map[PathKey][]Argument
		groups    []Group
		frozen    bool
	}

	// Entry is a single registry row as returned by Iterate.
	Entry struct {
		Path    PathKey
		Command *Command
	}
)

// NewUnit creates a pending declaration. source names it in diagnostics.
func NewUnit(source string) *Unit {
	return &Unit{source: source}
}

// AddArgument stages an argument spec. Specs keep their staging order.
func (u *Unit) AddArgument(spec ArgumentSpec) *Unit {
	u.pending = append(u.pending, spec)
	return u
}

// Source returns the declaration name given to NewUnit.
func (u *Unit) Source() string {
	return u.source
}

// Command returns the registered command, or nil before RegisterCommand.
func (u *Unit) Command() *Command {
	return u.command
}

// Pending returns the number of staged argument specs.
func (u *Unit) Pending() int {
	return len(u.pending)
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		commands:  make(map[PathKey]*Command),
		arguments: make(map[PathKey][]Argument),
	}
}

// RegisterCommand stores cmd under its current PathKey and drains the
// unit's staged arguments under that same key.
func (r *Registry) RegisterCommand(u *Unit, cmd *Command) (PathKey, error) {
	if u == nil {
		return "", &RegistrationError{Err: errors.New("nil declaration unit")}
	}
	if err := r.checkMutable(u.source); err != nil {
		return "", err
	}
	if cmd == nil {
		return "", &RegistrationError{Source: u.source, Err: errors.New("nil command")}
	}
	if u.command != nil {
		return "", &RegistrationError{
			Source: u.source,
			Path:   u.command.PathKey(),
			Err:    errors.New("declaration already registered a command"),
		}
	}
	if err := validateSegment(cmd.Name, "command"); err != nil {
		return "", &RegistrationError{Source: u.source, Err: err}
	}
	for _, g := range cmd.Groups {
		if err := validateSegment(g.Name, "group"); err != nil {
			return "", &RegistrationError{Source: u.source, Err: err}
		}
	}

	if cmd.Source == "" {
		cmd.Source = u.source
	}
	path := cmd.PathKey()
	if existing, ok := r.commands[path]; ok {
		return "", &RegistrationError{
			Source: u.source,
			Path:   path,
			Err:    fmt.Errorf("%w: already declared by %s", ErrDuplicatePath, existing.Source),
		}
	}

	r.commands[path] = cmd
	for _, g := range cmd.Groups {
		r.addGroup(g)
	}
	u.command = cmd

	specs := u.pending
	u.pending = nil
	if err := r.RegisterPendingArguments(path, specs); err != nil {
		delete(r.commands, path)
		u.command = nil
		return "", err
	}
	return path, nil
}

// RegisterPendingArguments binds specs to the command currently at path.
func (r *Registry) RegisterPendingArguments(path PathKey, specs []ArgumentSpec) error {
	if err := r.checkMutable(string(path)); err != nil {
		return err
	}
	cmd, ok := r.commands[path]
	if !ok {
		return &RegistrationError{Path: path, Err: fmt.Errorf("arguments declared for unknown command: %w", ErrCommandNotFound)}
	}
	if len(specs) == 0 {
		return nil
	}

	args := slices.Clone(r.arguments[path])
	for _, spec := range specs {
		if spec.Name == "" {
			return &RegistrationError{Source: cmd.Source, Path: path, Err: errors.New("argument name is empty")}
		}
		if slices.ContainsFunc(args, func(a Argument) bool { return a.Name == spec.Name }) {
			return &RegistrationError{Source: cmd.Source, Path: path, Err: fmt.Errorf("argument %q declared twice", spec.Name)}
		}
		args = append(args, spec.bind(path))
	}
	r.arguments[path] = args
	return nil
}

// AttachGroup prepends g to the unit's command chain and moves the command
// row and its argument row from the old PathKey to the new one.
func (r *Registry) AttachGroup(u *Unit, g Group) (oldPath, newPath PathKey, err error) {
	if u == nil || u.command == nil {
		source := ""
		if u != nil {
			source = u.source
		}
		return "", "", &RegistrationError{Source: source, Err: fmt.Errorf("%w (group %q)", ErrNoCommand, g.Name)}
	}
	if err := r.checkMutable(u.source); err != nil {
		return "", "", err
	}
	if err := validateSegment(g.Name, "group"); err != nil {
		return "", "", &RegistrationError{Source: u.source, Err: err}
	}

	cmd := u.command
	oldPath = cmd.PathKey()
	if r.commands[oldPath] != cmd {
		return "", "", &RegistrationError{Source: u.source, Path: oldPath, Err: errors.New("command is not registered under its current path")}
	}
	newPath = NewPathKey(append([]string{g.Name}, cmd.GroupNames()...), cmd.Name)
	if existing, ok := r.commands[newPath]; ok {
		return "", "", &RegistrationError{
			Source: u.source,
			Path:   newPath,
			Err:    fmt.Errorf("%w: already declared by %s", ErrDuplicatePath, existing.Source),
		}
	}

	cmd.Groups = append([]Group{g}, cmd.Groups...)
	delete(r.commands, oldPath)
	r.commands[newPath] = cmd
	if args, ok := r.arguments[oldPath]; ok {
		delete(r.arguments, oldPath)
		for i := range args {
			args[i].OwningPath = newPath
		}
		r.arguments[newPath] = args
	}
	r.addGroup(g)
	return oldPath, newPath, nil
}

// Lookup returns the command registered at path.
func (r *Registry) Lookup(path PathKey) (*Command, bool) {
	cmd, ok := r.commands[path]
	return cmd, ok
}

// ArgumentsOf returns a copy of the arguments stored under path, in
// declaration order.
func (r *Registry) ArgumentsOf(path PathKey) []Argument {
	return slices.Clone(r.arguments[path])
}

// Iterate returns every row sorted by PathKey.
func (r *Registry) Iterate() []Entry {
	entries := make([]Entry, 0, len(r.commands))
	for path, cmd := range r.commands {
		entries = append(entries, Entry{Path: path, Command: cmd})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(string(a.Path), string(b.Path))
	})
	return entries
}

// Paths returns every registered PathKey, sorted.
func (r *Registry) Paths() []PathKey {
	paths := make([]PathKey, 0, len(r.commands))
	for path := range r.commands {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.commands)
}

// Groups returns every group seen so far, deduplicated by name. The first
// declaration of a name wins; a later about only fills an empty one.
func (r *Registry) Groups() []Group {
	return slices.Clone(r.groups)
}

// Group returns the first-declared group with the given name.
func (r *Registry) Group(name string) (Group, bool) {
	for _, g := range r.groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Freeze ends the load phase. Later mutations fail with ErrFrozen.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	return r.frozen
}

func (r *Registry) addGroup(g Group) {
	for i, existing := range r.groups {
		if existing.Name == g.Name {
			if existing.About == "" && g.About != "" {
				r.groups[i].About = g.About
			}
			return
		}
	}
	r.groups = append(r.groups, g)
}

func (r *Registry) checkMutable(source string) error {
	if r.frozen {
		return &RegistrationError{Source: source, Err: ErrFrozen}
	}
	return nil
}

func validateSegment(name, kind string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%s name is empty", kind)
	case strings.Contains(name, Separator):
		return fmt.Errorf("%s name %q must not contain %q", kind, name, Separator)
	default:
		return nil
	}
}
