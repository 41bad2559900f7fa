// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/taskgrove/grove/internal/app"
	"github.com/taskgrove/grove/internal/toolproj"
)

type toolListing struct {
	Tools      []toolproj.Descriptor `json:"tools"`
	Collisions []toolproj.Collision  `json:"collisions,omitempty"`
}

// newToolsCommand creates the `grove tools` command.
func newToolsCommand(a *app.App) *cobra.Command {
	var (
		asJSON bool
		show   string
	)
	c := &cobra.Command{
		Use:   "tools",
		Short: "List the tools exposed to MCP clients",
		Long: `List the tool projection of the task registry.

Tool names are the command path with separators replaced by underscores.
Paths that sanitize to the same name are reported as collisions; the last
path in sorted order keeps the name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if show != "" {
				return showTool(out, a.Tools, show)
			}
			listing := toolListing{Tools: a.Tools.Descriptors(), Collisions: a.Tools.Collisions()}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}
			writeToolListing(out, listing)
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "print descriptors and collisions as JSON")
	c.Flags().StringVar(&show, "show", "", "render the description of one tool")
	return c
}

func writeToolListing(w io.Writer, l toolListing) {
	if len(l.Tools) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("No tools projected."))
		return
	}
	fmt.Fprintln(w, TitleStyle.Render("Tools"))
	for _, d := range l.Tools {
		fmt.Fprintf(w, "  %s  %s%s\n", CmdStyle.Render(d.Name), SubtitleStyle.Render(d.Path.String()), hintLabel(d.Hints))
	}
	if len(l.Collisions) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, WarningStyle.Render("Name collisions"))
	for _, c := range l.Collisions {
		paths := make([]string, len(c.Paths))
		for i, p := range c.Paths {
			paths[i] = p.String()
		}
		fmt.Fprintf(w, "  %s: %s (kept %s)\n", c.Name, strings.Join(paths, ", "), c.Winner)
	}
}

func hintLabel(h toolproj.Hints) string {
	switch {
	case h.Destructive:
		return " " + ErrorStyle.Render("[destructive]")
	case h.ReadOnly:
		return " " + SuccessStyle.Render("[read-only]")
	default:
		return ""
	}
}

// showTool renders a tool's description as markdown.
func showTool(w io.Writer, tools *toolproj.Set, name string) error {
	d, ok := tools.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown tool %q (run 'grove tools' to list them)", name)
	}
	md := fmt.Sprintf("# %s\n\nCommand path: `%s`\n\n%s\n", d.Name, d.Path, d.Description)
	rendered, err := glamour.Render(md, glamourStyle("", w))
	if err != nil {
		return fmt.Errorf("rendering tool description: %w", err)
	}
	fmt.Fprint(w, rendered)
	return nil
}
