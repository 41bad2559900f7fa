// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskgrove/grove/internal/app"
)

// builtinCompletions are the candidates offered for built-in commands.
var builtinCompletions = map[string][]string{
	"config": {"dump", "path", "show"},
	"mcp":    nil,
	"tools":  nil,
	"tree":   nil,
	"watch":  nil,
}

// newCompleteCommand creates the hidden `grove _complete` command. It prints
// the words that may follow the given ones, one per line.
func newCompleteCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:                "_complete [words...]",
		Hidden:             true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range completions(a, args) {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

// completions lists the candidates after words. Task names are shadowed by
// built-ins of the same name.
func completions(a *app.App, words []string) []string {
	words = slices.DeleteFunc(slices.Clone(words), func(w string) bool { return w == "" })
	if len(words) == 0 {
		out := a.Tree.Complete(nil)
		for name := range builtinCompletions {
			out = append(out, name)
		}
		slices.Sort(out)
		return slices.Compact(out)
	}
	if next, ok := builtinCompletions[words[0]]; ok {
		if len(words) == 1 {
			return next
		}
		return nil
	}
	return a.Tree.Complete(words)
}

// newCompletionCommand creates the hidden `grove _completion <shell>`
// command.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "_completion <shell>",
		Short:     "Print a shell completion script",
		Hidden:    true,
		ValidArgs: []string{"bash", "zsh", "fish"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch strings.ToLower(args[0]) {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return fmt.Errorf("unsupported shell %q (expected bash, zsh or fish)", args[0])
			}
		},
	}
}
