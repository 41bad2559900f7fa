// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Separator joins group names and the command name into a PathKey.
const Separator = "."

const (
	// RiskSafe marks a command with no notable side effects.
	RiskSafe RiskLevel = "safe"
	// RiskReadOnly marks a command that only reads state.
	RiskReadOnly RiskLevel = "read_only"
	// RiskDestructive marks a command that deletes or overwrites state.
	RiskDestructive RiskLevel = "destructive"
)

const (
	// ValueString is the default value type.
	ValueString ValueType = "string"
	// ValueInt parses raw values as base-10 integers.
	ValueInt ValueType = "int"
	// ValueFloat parses raw values as 64-bit floats.
	ValueFloat ValueType = "float"
	// ValueBool accepts the literals "true" and "false".
	ValueBool ValueType = "bool"
)

// ErrInvalidRiskLevel is returned when a risk level is not one of the known values.
var ErrInvalidRiskLevel = errors.New("invalid risk level")

type (
	// PathKey is the unique registry identifier of a command.
	PathKey string

	// RiskLevel classifies the side effects of a command for tool consumers.
	RiskLevel string

	// ValueType is the declared type of an argument value.
	ValueType string

	// Group is a named namespace level.
	Group struct {
		Name  string `json:"name"`
		About string `json:"about,omitempty"`
	}

	// ToolDescription is the extra prose shown to agents for a command.
	ToolDescription struct {
		Description  string    `json:"description"`
		RiskLevel    RiskLevel `json:"risk_level,omitempty"`
		WhenToUse    []string  `json:"when_to_use,omitempty"`
		WhenNotToUse []string  `json:"when_not_to_use,omitempty"`
	}

	// Multiplicity bounds how many values an argument consumes.
	// A zero field means unbounded for Max and no constraint otherwise.
	Multiplicity struct {
		Count int `json:"count,omitempty"`
		Min   int `json:"min,omitempty"`
		Max   int `json:"max,omitempty"`
	}

	// ArgumentSpec is an argument declaration before it is bound to a path.
	ArgumentSpec struct {
		Name         string
		Short        string
		Long         string
		IsFlag       bool
		TakesValue   *bool
		Required     bool
		DefaultValue string
		Multiplicity *Multiplicity
		ValueType    ValueType
		Help         string
		LongHelp     string
	}

	// Argument is a declared parameter of a command, stored under the
	// command's current PathKey.
	Argument struct {
		Name         string        `json:"name"`
		OwningPath   PathKey       `json:"owning_path"`
		Short        string        `json:"short,omitempty"`
		Long         string        `json:"long,omitempty"`
		IsFlag       bool          `json:"is_flag"`
		TakesValue   bool          `json:"takes_value"`
		Required     bool          `json:"required,omitempty"`
		DefaultValue string        `json:"default_value,omitempty"`
		Multiplicity *Multiplicity `json:"multiplicity,omitempty"`
		ValueType    ValueType     `json:"value_type"`
		Help         string        `json:"help,omitempty"`
		LongHelp     string        `json:"long_help,omitempty"`
	}

	// Streams are the ambient output channels handed to an invocation.
	Streams struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Invoker is the opaque callable behind a command. The returned value is
	// reported back to tool callers; it may be nil.
	Invoker interface {
		Invoke(ctx context.Context, kwargs map[string]any, streams Streams) (any, error)
	}

	// InvokerFunc adapts a function to the Invoker interface.
	InvokerFunc func(ctx context.Context, kwargs map[string]any, streams Streams) (any, error)

	// Command is a named invokable unit.
	Command struct {
		Name      string
		About     string
		LongAbout string
		// Groups is ordered outer to inner.
		Groups  []Group
		Tool    *ToolDescription
		Invoker Invoker
		// Source identifies the declaration, e.g. "tasks.cue:tasks[2]".
		Source string
	}
)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, kwargs map[string]any, streams Streams) (any, error) {
	return f(ctx, kwargs, streams)
}

// NewPathKey joins group names and a command name.
func NewPathKey(groups []string, name string) PathKey {
	if len(groups) == 0 {
		return PathKey(name)
	}
	return PathKey(strings.Join(groups, Separator) + Separator + name)
}

// String returns the key as a plain string.
func (p PathKey) String() string {
	return string(p)
}

// Segments splits the key on the separator.
func (p PathKey) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), Separator)
}

// IsValid returns whether the risk level is one of the known levels.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskSafe, RiskReadOnly, RiskDestructive:
		return true
	default:
		return false
	}
}

// ParseRiskLevel validates s. The empty string yields RiskSafe.
func ParseRiskLevel(s string) (RiskLevel, error) {
	if s == "" {
		return RiskSafe, nil
	}
	r := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return RiskSafe, fmt.Errorf("%w: %q (expected safe, read_only or destructive)", ErrInvalidRiskLevel, s)
	}
	return r, nil
}

// NormalizeValueType maps declared type names onto the four value types.
// Missing or unknown names are treated as strings.
func NormalizeValueType(s string) ValueType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return ValueInt
	case "float", "number":
		return ValueFloat
	case "bool", "boolean":
		return ValueBool
	default:
		return ValueString
	}
}

// PathKey computes the command's current key from its group chain.
func (c *Command) PathKey() PathKey {
	names := make([]string, len(c.Groups))
	for i, g := range c.Groups {
		names[i] = g.Name
	}
	return NewPathKey(names, c.Name)
}

// GroupNames returns the names of the group chain, outer to inner.
func (c *Command) GroupNames() []string {
	names := make([]string, len(c.Groups))
	for i, g := range c.Groups {
		names[i] = g.Name
	}
	return names
}

// IsPositional reports whether the argument binds positionally on the CLI.
func (a Argument) IsPositional() bool {
	return a.Short == "" && a.Long == "" && !a.IsFlag
}

// LongName is the CLI flag name: Long, or Name when no long form is declared.
func (a Argument) LongName() string {
	if a.Long != "" {
		return a.Long
	}
	return a.Name
}

// AllowsMany reports whether the argument may consume more than one value.
func (a Argument) AllowsMany() bool {
	m := a.Multiplicity
	if m == nil {
		return false
	}
	return m.Count > 1 || m.Max > 1 || (m.Count == 0 && m.Max == 0)
}

// bind resolves a spec into an Argument owned by path.
func (s ArgumentSpec) bind(path PathKey) Argument {
	// A value-less argument is a switch, whatever is_flag says.
	isFlag := s.IsFlag || (s.TakesValue != nil && !*s.TakesValue)
	vt := s.ValueType
	if vt == "" {
		vt = ValueString
	}
	if isFlag {
		vt = ValueBool
	}
	var mult *Multiplicity
	if s.Multiplicity != nil {
		m := *s.Multiplicity
		mult = &m
	}
	return Argument{
		Name:         s.Name,
		OwningPath:   path,
		Short:        s.Short,
		Long:         s.Long,
		IsFlag:       isFlag,
		TakesValue:   !isFlag,
		Required:     s.Required,
		DefaultValue: s.DefaultValue,
		Multiplicity: mult,
		ValueType:    vt,
		Help:         s.Help,
		LongHelp:     s.LongHelp,
	}
}
