// SPDX-License-Identifier: MPL-2.0

package cliproj

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/taskgrove/grove/internal/cmdtree"
	"github.com/taskgrove/grove/internal/registry"
)

// AnnotationPath marks projected cobra commands with their tree path.
const AnnotationPath = "grove.path"

// helpFlag is cobra's help flag, added to every command.
const helpFlag = "help"

var (
	// ErrSubcommandRequired is returned when a group is invoked without a child.
	ErrSubcommandRequired = errors.New("a subcommand is required")
	// ErrUnexpectedArgs is returned for positional values a command does not declare.
	ErrUnexpectedArgs = errors.New("unexpected arguments")
	// ErrMissingArgs is returned when required positional arguments are absent.
	ErrMissingArgs = errors.New("missing required arguments")
)

type (
	// Handler runs a matched command. segments is the full path of the
	// command node; raw holds the values the user supplied.
	Handler func(cmd *cobra.Command, segments []string, raw map[string]any) error

	// Projector builds cobra commands from a tree.
	Projector struct {
		Registry *registry.Registry
		Handler  Handler
		Logger   *log.Logger
		// reserved holds shorthands owned by persistent flags of the parent.
		reserved map[string]bool
		// globals holds long names of the parent's persistent flags.
		globals map[string]bool
	}
)

// Attach projects root's children onto parent. Shorthands already used by
// parent's persistent flags are not reused, and children whose name is
// taken by an existing command of parent are skipped.
func (p *Projector) Attach(parent *cobra.Command, root *cmdtree.Node) {
	p.reserved = make(map[string]bool)
	p.globals = make(map[string]bool)
	reserve := func(f *pflag.Flag) {
		p.globals[f.Name] = true
		if f.Shorthand != "" {
			p.reserved[f.Shorthand] = true
		}
	}
	parent.PersistentFlags().VisitAll(reserve)
	parent.InheritedFlags().VisitAll(reserve)
	// cobra's default help flag.
	p.reserved["h"] = true

	taken := make(map[string]bool)
	for _, c := range parent.Commands() {
		taken[c.Name()] = true
	}
	for _, c := range p.Project(root) {
		if taken[c.Name()] {
			p.Logger.Warn("task shadowed by built-in command", "name", c.Name(), "path", c.Annotations[AnnotationPath])
			continue
		}
		parent.AddCommand(c)
	}
}

// Project returns one cobra command per child of root.
func (p *Projector) Project(root *cmdtree.Node) []*cobra.Command {
	if p.Logger == nil {
		p.Logger = log.Default()
	}
	if p.reserved == nil {
		p.reserved = map[string]bool{"h": true}
	}

	children := root.Children()
	out := make([]*cobra.Command, 0, len(children))
	for _, n := range children {
		out = append(out, p.build(n))
	}
	return out
}

func (p *Projector) build(n *cmdtree.Node) *cobra.Command {
	c := &cobra.Command{
		Use:         n.Name,
		Short:       n.About,
		Annotations: map[string]string{AnnotationPath: n.Path().String()},
	}

	if n.IsCommand() {
		p.bindCommand(c, n)
	} else {
		c.Args = cobra.ArbitraryArgs
		c.RunE = groupRunE(n)
	}

	for _, child := range n.Children() {
		c.AddCommand(p.build(child))
	}
	return c
}

func (p *Projector) bindCommand(c *cobra.Command, n *cmdtree.Node) {
	segments := n.Segments
	// Arguments are looked up by the recomputed path, not by node identity.
	args := p.Registry.ArgumentsOf(n.Path())

	var positional, flags []registry.Argument
	for _, a := range args {
		if a.IsPositional() {
			positional = append(positional, a)
		} else {
			flags = append(flags, a)
		}
	}

	c.Use = usage(n.Name, positional)
	if n.Command.LongAbout != "" {
		c.Long = n.Command.LongAbout
	}
	for _, a := range flags {
		p.addFlag(c, a)
	}
	c.Args = positionalValidator(n, positional)
	c.RunE = func(cmd *cobra.Command, argv []string) error {
		return p.Handler(cmd, segments, collect(cmd, flags, positional, argv))
	}
}

func (p *Projector) addFlag(c *cobra.Command, a registry.Argument) {
	name := a.LongName()
	if name == helpFlag {
		p.Logger.Warn("flag name reserved for help, skipping", "command", a.OwningPath, "flag", name)
		return
	}
	if c.Flags().Lookup(name) != nil {
		p.Logger.Warn("duplicate flag name, skipping", "command", a.OwningPath, "flag", name)
		return
	}
	if p.globals[name] {
		p.Logger.Warn("task flag shadows global flag for this command", "command", a.OwningPath, "flag", name)
	}

	short := a.Short
	if len(short) != 1 || p.reserved[short] || c.Flags().ShorthandLookup(short) != nil {
		if short != "" {
			p.Logger.Warn("short flag unavailable, using long form only", "command", a.OwningPath, "flag", name, "short", short)
		}
		short = ""
	}

	help := a.Help
	if a.ValueType != registry.ValueString && !a.IsFlag {
		help = strings.TrimSpace(fmt.Sprintf("%s (%s)", help, a.ValueType))
	}

	switch {
	case a.IsFlag:
		c.Flags().BoolP(name, short, false, help)
	case a.AllowsMany():
		var def []string
		if a.DefaultValue != "" {
			def = []string{a.DefaultValue}
		}
		c.Flags().StringArrayP(name, short, def, help)
	default:
		c.Flags().StringP(name, short, a.DefaultValue, help)
	}
	if a.Required {
		_ = c.MarkFlagRequired(name)
	}
}

// collect gathers only values the user supplied, so defaults are applied in
// one place during coercion.
func collect(cmd *cobra.Command, flags, positional []registry.Argument, argv []string) map[string]any {
	raw := make(map[string]any)
	for _, a := range flags {
		f := cmd.Flags().Lookup(a.LongName())
		if f == nil || !f.Changed {
			continue
		}
		switch {
		case a.IsFlag:
			v, err := cmd.Flags().GetBool(f.Name)
			if err == nil {
				raw[a.Name] = v
			}
		case a.AllowsMany():
			v, err := cmd.Flags().GetStringArray(f.Name)
			if err == nil {
				raw[a.Name] = v
			}
		default:
			raw[a.Name] = f.Value.String()
		}
	}

	for i, a := range positional {
		if i >= len(argv) {
			break
		}
		if a.AllowsMany() && i == len(positional)-1 {
			raw[a.Name] = append([]string(nil), argv[i:]...)
			break
		}
		raw[a.Name] = argv[i]
	}
	return raw
}

func groupRunE(n *cmdtree.Node) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, argv []string) error {
		_ = cmd.Help()
		if len(argv) == 0 {
			return fmt.Errorf("%s: %w", cmd.CommandPath(), ErrSubcommandRequired)
		}
		return &registry.LookupError{
			Path:    registry.NewPathKey(n.Segments, argv[0]),
			Nearest: n.Path(),
		}
	}
}

func positionalValidator(n *cmdtree.Node, positional []registry.Argument) cobra.PositionalArgs {
	minArgs := 0
	variadic := false
	for i, a := range positional {
		if a.Required {
			minArgs = i + 1
		}
		if a.AllowsMany() && i == len(positional)-1 {
			variadic = true
		}
	}
	maxArgs := len(positional)

	return func(cmd *cobra.Command, argv []string) error {
		if !variadic && len(argv) > maxArgs {
			if n.IsGroup() {
				_ = cmd.Help()
				return &registry.LookupError{Path: registry.NewPathKey(n.Segments, argv[maxArgs]), Nearest: n.Path()}
			}
			return fmt.Errorf("%s accepts %d positional argument(s), got %d: %w", cmd.CommandPath(), maxArgs, len(argv), ErrUnexpectedArgs)
		}
		if len(argv) < minArgs {
			var missing []string
			for _, a := range positional[len(argv):minArgs] {
				missing = append(missing, "<"+a.Name+">")
			}
			return fmt.Errorf("%s: %w: %s", cmd.CommandPath(), ErrMissingArgs, strings.Join(missing, " "))
		}
		return nil
	}
}

func usage(name string, positional []registry.Argument) string {
	parts := []string{name}
	for i, a := range positional {
		s := a.Name
		if a.AllowsMany() && i == len(positional)-1 {
			s += "..."
		}
		if a.Required {
			parts = append(parts, "<"+s+">")
		} else {
			parts = append(parts, "["+s+"]")
		}
	}
	return strings.Join(parts, " ")
}
