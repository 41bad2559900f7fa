// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskgrove/grove/internal/app"
	"github.com/taskgrove/grove/internal/watch"
)

var errWatchNeedsProject = errors.New("watch needs a project")

// newWatchCommand creates the `grove watch` command.
func newWatchCommand(a *app.App) *cobra.Command {
	var (
		patterns    []string
		ignore      []string
		debounce    time.Duration
		clearScreen bool
	)
	c := &cobra.Command{
		Use:   "watch [flags] <task path...> [task flags]",
		Short: "Re-run a task when project files change",
		Long: `Run a task, then run it again whenever a matching file under the
project root changes. Flags after the task path belong to the task.`,
		Example: `  grove watch -p 'docs/**/*.md' docs build --clean`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Project == nil {
				if a.ProjectErr != nil {
					return a.ProjectErr
				}
				return errWatchNeedsProject
			}
			verbose, _ := cmd.Flags().GetCount("verbose")
			run := func(ctx context.Context) {
				if err := runTask(ctx, a, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
					renderError(cmd.ErrOrStderr(), err, verbose > 0, glamourStyle(a.Config.UI.ColorScheme, cmd.ErrOrStderr()))
				}
			}

			w, err := watch.New(watch.Config{
				BaseDir:     a.Project.Root,
				Patterns:    patterns,
				Ignore:      ignore,
				Debounce:    debounce,
				ClearScreen: clearScreen,
				Output:      cmd.OutOrStdout(),
				Logger:      a.Logger,
				OnChange: func(ctx context.Context, changed []string) error {
					fmt.Fprintln(cmd.ErrOrStderr(), SubtitleStyle.Render(changeSummary(changed)))
					run(ctx)
					return nil
				},
			})
			if err != nil {
				return err
			}

			run(cmd.Context())
			fmt.Fprintln(cmd.ErrOrStderr(), hintStyle.Render("Watching "+a.Project.Root+" (Ctrl+C to stop)"))
			return w.Run(cmd.Context())
		},
	}
	c.Flags().SetInterspersed(false)
	c.Flags().StringArrayVarP(&patterns, "pattern", "p", nil, "glob of files that trigger a run (repeatable, default all)")
	c.Flags().StringArrayVar(&ignore, "ignore", nil, "glob of files to ignore (repeatable)")
	c.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-running")
	c.Flags().BoolVar(&clearScreen, "clear", false, "clear the screen before each run")
	return c
}

// runTask executes args as a task command line on a fresh command tree.
func runTask(ctx context.Context, a *app.App, args []string, in io.Reader, out, errOut io.Writer) error {
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

func changeSummary(changed []string) string {
	const shown = 3
	if len(changed) <= shown {
		return "changed: " + strings.Join(changed, ", ")
	}
	return fmt.Sprintf("changed: %s and %d more", strings.Join(changed[:shown], ", "), len(changed)-shown)
}
