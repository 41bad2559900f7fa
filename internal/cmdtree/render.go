// SPDX-License-Identifier: MPL-2.0

package cmdtree

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/taskgrove/grove/internal/registry"
)

const (
	// FormatText is the indented human listing.
	FormatText Format = "text"
	// FormatJSON is the Document encoded as JSON.
	FormatJSON Format = "json"
	// FormatTOML is the Document encoded as TOML.
	FormatTOML Format = "toml"
)

type (
	// Format selects a tree rendering.
	Format string

	// Document is the serializable form of a tree.
	Document struct {
		Name     string        `json:"name" toml:"name"`
		Kind     string        `json:"kind" toml:"kind"`
		Path     string        `json:"path,omitempty" toml:"path,omitempty"`
		About    string        `json:"about,omitempty" toml:"about,omitempty"`
		Risk     string        `json:"risk_level,omitempty" toml:"risk_level,omitempty"`
		Args     []ArgumentDoc `json:"arguments,omitempty" toml:"arguments,omitempty"`
		Children []Document    `json:"children,omitempty" toml:"children,omitempty"`
	}

	// ArgumentDoc describes one argument in a Document.
	ArgumentDoc struct {
		Name     string `json:"name" toml:"name"`
		Flag     string `json:"flag,omitempty" toml:"flag,omitempty"`
		Type     string `json:"type" toml:"type"`
		Switch   bool   `json:"switch,omitempty" toml:"switch,omitempty"`
		Required bool   `json:"required,omitempty" toml:"required,omitempty"`
		Multiple bool   `json:"multiple,omitempty" toml:"multiple,omitempty"`
		Default  string `json:"default,omitempty" toml:"default,omitempty"`
		Help     string `json:"help,omitempty" toml:"help,omitempty"`
	}
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatTOML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown tree format %q (expected text, json or toml)", s)
	}
}

// Document converts the tree rooted at n. Arguments are looked up in reg by
// each node's recomputed path.
func (n *Node) Document(reg *registry.Registry, rootName string) Document {
	doc := Document{Name: n.Name, Kind: n.kind(), About: n.About}
	if len(n.Segments) == 0 {
		doc.Name = rootName
	} else {
		doc.Path = n.Path().String()
	}
	if n.Command != nil {
		if n.Command.Tool != nil {
			doc.Risk = string(n.Command.Tool.RiskLevel)
		}
		for _, a := range reg.ArgumentsOf(n.Path()) {
			doc.Args = append(doc.Args, ArgumentDoc{
				Name:     a.Name,
				Flag:     flagSpelling(a),
				Type:     string(a.ValueType),
				Switch:   a.IsFlag,
				Required: a.Required,
				Multiple: a.AllowsMany(),
				Default:  a.DefaultValue,
				Help:     a.Help,
			})
		}
	}
	for _, c := range n.Children() {
		doc.Children = append(doc.Children, c.Document(reg, rootName))
	}
	return doc
}

func (n *Node) kind() string {
	switch {
	case len(n.Segments) == 0:
		return "root"
	case n.Command != nil && len(n.children) > 0:
		return "command+group"
	case n.Command != nil:
		return "command"
	default:
		return "group"
	}
}

// Render writes the tree in the given format.
func Render(w io.Writer, root *Node, reg *registry.Registry, format Format, long bool) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(root.Document(reg, "grove"))
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(root.Document(reg, "grove"))
	default:
		return renderText(w, root, reg, long)
	}
}

func renderText(w io.Writer, root *Node, reg *registry.Registry, long bool) error {
	var b strings.Builder
	for _, c := range root.Children() {
		writeTextNode(&b, c, reg, long, 0)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextNode(b *strings.Builder, n *Node, reg *registry.Registry, long bool, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.Command != nil {
		line := n.Name
		if sig := ArgumentSignature(reg.ArgumentsOf(n.Path())); sig != "" {
			line += " " + sig
		}
		fmt.Fprintf(b, "%s%s - %s\n", indent, line, n.Command.About)
		if long && n.Command.Tool != nil {
			inner := strings.Repeat("  ", depth+1)
			b.WriteString("\n")
			for _, l := range strings.Split(strings.TrimSpace(n.Command.Tool.Description), "\n") {
				if strings.TrimSpace(l) == "" {
					b.WriteString("\n")
					continue
				}
				fmt.Fprintf(b, "%s%s\n", inner, l)
			}
			fmt.Fprintf(b, "%sRisk level: %s\n\n", inner, n.Command.Tool.RiskLevel)
		}
	}
	if len(n.children) == 0 {
		return
	}
	if n.Command == nil {
		if n.About == "" {
			fmt.Fprintf(b, "%s%s:\n", indent, n.Name)
		} else {
			fmt.Fprintf(b, "%s%s: %s\n", indent, n.Name, n.About)
		}
	}
	for _, c := range n.Children() {
		writeTextNode(b, c, reg, long, depth+1)
	}
}

// ArgumentSignature formats arguments as "[--flag] [--opt=<type>]".
// Positional arguments are shown as "<name>".
func ArgumentSignature(args []registry.Argument) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case a.IsPositional():
			parts = append(parts, "<"+a.Name+">")
		case a.IsFlag:
			parts = append(parts, "["+flagSpelling(a)+"]")
		default:
			parts = append(parts, fmt.Sprintf("[%s=<%s>]", flagSpelling(a), a.ValueType))
		}
	}
	return strings.Join(parts, " ")
}

func flagSpelling(a registry.Argument) string {
	switch {
	case a.Long != "":
		return "--" + a.Long
	case a.Short != "":
		return "-" + a.Short
	case a.IsFlag:
		return "--" + a.Name
	default:
		return ""
	}
}
