// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/taskgrove/grove/internal/app"
	"github.com/taskgrove/grove/internal/cliproj"
	"github.com/taskgrove/grove/internal/config"
	"github.com/taskgrove/grove/internal/registry"
)

// EnvDebug forces debug logging when set to a non-empty value.
const EnvDebug = "GROVE_DEBUG"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// Streams are the process I/O streams.
	Streams struct {
		In  io.Reader
		Out io.Writer
		Err io.Writer
	}

	// globalFlags are the root flags needed before cobra parses the command
	// line, since they shape the commands cobra sees.
	globalFlags struct {
		verbosity  int
		configPath string
	}
)

// Execute runs grove with the process arguments and exits.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}))
}

// Run loads the project, builds the command tree and executes args. It
// returns the process exit code.
func Run(ctx context.Context, args []string, streams Streams) int {
	return run(ctx, args, streams, app.Options{})
}

// run is Run with load options; ConfigPath and Logger are set from args.
func run(ctx context.Context, args []string, streams Streams, opts app.Options) int {
	flags := parseGlobalFlags(args)
	logger := newLogger(streams.Err, flags.verbosity)
	style := glamourStyle(config.ColorSchemeAuto, streams.Err)

	opts.ConfigPath, opts.Logger = flags.configPath, logger
	a, err := app.Load(ctx, opts)
	if err != nil {
		renderError(streams.Err, err, flags.verbosity > 0, style)
		return exitCode(err)
	}

	verbose := flags.verbosity > 0 || a.Config.UI.Verbose
	if verbose && flags.verbosity == 0 && os.Getenv(EnvDebug) == "" {
		logger.SetLevel(log.InfoLevel)
	}
	style = glamourStyle(a.Config.UI.ColorScheme, streams.Err)
	renderDiagnostics(streams.Err, a.Diagnostics, verbose)

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	err = fang.Execute(ctx, root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, verbose, style)
		}),
	)
	return exitCode(err)
}

// newRootCommand builds the root command with built-ins and task commands.
func newRootCommand(a *app.App) *cobra.Command {
	root := &cobra.Command{
		Use:   "grove",
		Short: "Run project tasks from the CLI or as agent tools",
		Long: TitleStyle.Render("grove") + SubtitleStyle.Render(" - project tasks for people and agents") + `

grove loads the task files in the nearest .grove directory and exposes
every task twice: as a nested CLI command and as a tool for MCP clients.

` + SubtitleStyle.Render("Examples:") + `
  grove tree                List the task tree
  grove docs build --clean  Run the 'build' task of the 'docs' group
  grove tools               List the tool projection
  grove mcp                 Serve the tools over stdio
  grove watch docs build    Re-run a task on file changes`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if a.ProjectErr != nil {
				return a.ProjectErr
			}
			_ = cmd.Help()
			return &registry.LookupError{Path: registry.NewPathKey(nil, args[0])}
		},
	}

	root.PersistentFlags().CountP("verbose", "v", "increase verbosity (-v info, -vv debug)")
	root.PersistentFlags().String("config", "", "config file (default is "+defaultConfigPath()+")")

	root.AddCommand(
		newTreeCommand(a),
		newToolsCommand(a),
		newMCPCommand(a),
		newConfigCommand(a),
		newWatchCommand(a),
		newCompleteCommand(a),
		newCompletionCommand(),
	)

	projector := &cliproj.Projector{
		Registry: a.Registry,
		Logger:   a.Logger,
		Handler:  dispatchHandler(a),
	}
	projector.Attach(root, a.Tree)
	return root
}

// dispatchHandler runs projected task commands through the dispatcher.
func dispatchHandler(a *app.App) cliproj.Handler {
	return func(cmd *cobra.Command, segments []string, raw map[string]any) error {
		value, err := a.Dispatcher.DispatchCLI(cmd.Context(), segments, raw, registry.Streams{
			Stdin:  cmd.InOrStdin(),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		if value != nil {
			fmt.Fprintln(cmd.OutOrStdout(), value)
		}
		return nil
	}
}

// parseGlobalFlags reads --verbose and --config ahead of cobra. Long forms
// count only before the first plain word, which starts a command path whose
// own flags may reuse those names. The -v shorthand is reserved everywhere,
// so it counts up to "--".
func parseGlobalFlags(args []string) globalFlags {
	var (
		known  []string
		inPath bool
	)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			i = len(args)
		case strings.HasPrefix(arg, "-v") && strings.Trim(arg[1:], "v") == "":
			known = append(known, arg)
		case !strings.HasPrefix(arg, "-"):
			inPath = true
		case inPath:
			// belongs to the command path
		case arg == "--verbose", strings.HasPrefix(arg, "--config="):
			known = append(known, arg)
		case arg == "--config" && i+1 < len(args):
			known = append(known, arg, args[i+1])
			i++
		}
	}

	var g globalFlags
	fs := pflag.NewFlagSet("grove", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.CountVarP(&g.verbosity, "verbose", "v", "")
	fs.StringVar(&g.configPath, "config", "", "")
	_ = fs.Parse(known)
	return g
}

// newLogger logs to w at warn level, info with -v and debug with -vv or
// GROVE_DEBUG.
func newLogger(w io.Writer, verbosity int) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "grove"})
	switch {
	case os.Getenv(EnvDebug) != "" || verbosity >= 2:
		logger.SetLevel(log.DebugLevel)
		logger.SetReportCaller(true)
	case verbosity == 1:
		logger.SetLevel(log.InfoLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// glamourStyle picks the markdown style: plain text when w is not a
// terminal, otherwise the configured scheme.
func glamourStyle(scheme config.ColorScheme, w io.Writer) string {
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return "notty"
	}
	if scheme == "" {
		return string(config.ColorSchemeAuto)
	}
	return string(scheme)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

func defaultConfigPath() string {
	path, err := config.ConfigFilePath()
	if err != nil {
		return "config.cue in the user config directory"
	}
	return path
}
