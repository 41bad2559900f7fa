// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskgrove/grove/internal/app"
	"github.com/taskgrove/grove/internal/cmdtree"
)

// newTreeCommand creates the `grove tree` command.
func newTreeCommand(a *app.App) *cobra.Command {
	var (
		format string
		long   bool
	)
	c := &cobra.Command{
		Use:   "tree",
		Short: "Show the task tree",
		Long: `Show every group and command loaded from the project.

The json and toml formats emit the same document for scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := cmdtree.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == cmdtree.FormatText && a.Registry.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("No tasks loaded."))
				return nil
			}
			return cmdtree.Render(cmd.OutOrStdout(), a.Tree, a.Registry, f, long)
		},
	}
	c.Flags().StringVar(&format, "format", string(cmdtree.FormatText), "output format (text, json, toml)")
	c.Flags().BoolVar(&long, "long", false, "include arguments in text output")
	return c
}
