// SPDX-License-Identifier: MPL-2.0

package toolproj

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskgrove/grove/internal/registry"
)

const (
	// NamePrefix namespaces every tool name.
	NamePrefix = "grove_"
	// DefaultAbout is shown when a command has no about text.
	DefaultAbout = "Grove task"
)

var nameReplacer = strings.NewReplacer(".", "_", " ", "_", "-", "_")

type (
	// Hints are the capability hints derived from a risk level.
	Hints struct {
		Destructive bool `json:"destructive"`
		ReadOnly    bool `json:"read_only"`
		OpenWorld   bool `json:"open_world"`
	}

	// Descriptor is the tool projection of one command.
	Descriptor struct {
		Name        string           `json:"name"`
		Path        registry.PathKey `json:"command_path"`
		Description string           `json:"description"`
		Schema      Schema           `json:"input_schema"`
		Hints       Hints            `json:"hints"`
	}

	// Collision lists the PathKeys that sanitized to the same name. Winner is
	// the descriptor kept under Name.
	Collision struct {
		Name   string             `json:"name"`
		Paths  []registry.PathKey `json:"paths"`
		Winner registry.PathKey   `json:"winner"`
	}

	// Set is the projected tool set.
	Set struct {
		byName     map[string]Descriptor
		collisions []Collision
	}
)

// ToolName sanitizes a PathKey into a tool name.
func ToolName(path registry.PathKey) string {
	return NamePrefix + nameReplacer.Replace(path.String())
}

// HintsFor derives capability hints from a risk level. Unknown levels get
// the safe hints.
func HintsFor(risk registry.RiskLevel) Hints {
	switch risk {
	case registry.RiskDestructive:
		return Hints{Destructive: true}
	case registry.RiskReadOnly:
		return Hints{ReadOnly: true}
	default:
		return Hints{}
	}
}

// Describe builds the description shown to agents.
func Describe(cmd *registry.Command) string {
	about := strings.TrimSpace(cmd.About)
	if about == "" {
		about = DefaultAbout
	}
	if cmd.Tool == nil {
		return about
	}

	var b strings.Builder
	b.WriteString(about)
	if prose := strings.TrimSpace(cmd.Tool.Description); prose != "" {
		b.WriteString("\n\n")
		b.WriteString(prose)
	}
	writeBullets(&b, "When to use:", cmd.Tool.WhenToUse)
	writeBullets(&b, "When NOT to use:", cmd.Tool.WhenNotToUse)
	return b.String()
}

func writeBullets(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n\n")
	b.WriteString(title)
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(strings.TrimSpace(item))
	}
}

// Project builds a descriptor for every command in reg. A nil logger uses
// the default logger.
func Project(reg *registry.Registry, logger *log.Logger) *Set {
	if logger == nil {
		logger = log.Default()
	}

	set := &Set{byName: make(map[string]Descriptor)}
	claimed := make(map[string][]registry.PathKey)
	for _, entry := range reg.Iterate() {
		d := describeEntry(entry, reg.ArgumentsOf(entry.Path), logger)
		claimed[d.Name] = append(claimed[d.Name], entry.Path)
		set.byName[d.Name] = d
	}

	for name, paths := range claimed {
		if len(paths) < 2 {
			continue
		}
		c := Collision{Name: name, Paths: paths, Winner: paths[len(paths)-1]}
		set.collisions = append(set.collisions, c)
		logger.Warn("tool name collision", "name", name, "paths", paths, "kept", c.Winner)
	}
	slices.SortFunc(set.collisions, func(a, b Collision) int {
		return strings.Compare(a.Name, b.Name)
	})
	return set
}

func describeEntry(entry registry.Entry, args []registry.Argument, logger *log.Logger) Descriptor {
	cmd := entry.Command
	risk := registry.RiskSafe
	if cmd.Tool != nil && cmd.Tool.RiskLevel != "" {
		risk = cmd.Tool.RiskLevel
		if !risk.IsValid() {
			logger.Warn("invalid risk level, treating as safe", "command", entry.Path, "risk_level", risk)
			risk = registry.RiskSafe
		}
	}
	return Descriptor{
		Name:        ToolName(entry.Path),
		Path:        entry.Path,
		Description: Describe(cmd),
		Schema:      BuildSchema(entry.Path, args),
		Hints:       HintsFor(risk),
	}
}

// Descriptors returns the surviving descriptors sorted by name.
func (s *Set) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(s.byName))
	for _, d := range s.byName {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Descriptor) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Collisions returns the sanitization collisions found by Project.
func (s *Set) Collisions() []Collision {
	return slices.Clone(s.collisions)
}

// Lookup returns the descriptor registered under a tool name.
func (s *Set) Lookup(name string) (Descriptor, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// Len returns the number of surviving descriptors.
func (s *Set) Len() int {
	return len(s.byName)
}

// MCPTool converts the descriptor into an MCP tool definition.
func (d Descriptor) MCPTool() (mcp.Tool, error) {
	raw, err := json.Marshal(d.Schema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("marshal input schema for %s: %w", d.Path, err)
	}
	tool := mcp.NewToolWithRawSchema(d.Name, d.Description, raw)
	tool.Annotations = mcp.ToolAnnotation{
		Title:           d.Path.String(),
		DestructiveHint: mcp.ToBoolPtr(d.Hints.Destructive),
		ReadOnlyHint:    mcp.ToBoolPtr(d.Hints.ReadOnly),
		OpenWorldHint:   mcp.ToBoolPtr(d.Hints.OpenWorld),
	}
	return tool, nil
}
