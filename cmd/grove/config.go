// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taskgrove/grove/internal/app"
	"github.com/taskgrove/grove/internal/config"
)

// newConfigCommand creates the `grove config` command tree.
func newConfigCommand(a *app.App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect grove configuration",
		Long: `Inspect grove configuration.

Configuration is read from:
  - Linux: ~/.config/grove/config.cue
  - macOS: ~/Library/Application Support/grove/config.cue
  - Windows: %APPDATA%\grove\config.cue

GROVE_* environment variables override file values, e.g.
GROVE_TOOLS_CALL_TIMEOUT=30m.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			showConfig(cmd.OutOrStdout(), a)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.ConfigPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), a.ConfigPath)
				return nil
			}
			path, err := config.ConfigFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(a.Config))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, a *app.App) {
	cfg := a.Config
	row := func(key, value string) {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render(key), SuccessStyle.Render(value))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if a.ConfigPath != "" {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), a.ConfigPath)
	} else {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	row("default_runtime", cfg.DefaultRuntime.String())
	row("tasks_dir", cfg.TasksDir)
	row("ui.color_scheme", cfg.UI.ColorScheme.String())
	row("ui.verbose", fmt.Sprint(cfg.UI.Verbose))
	row("tools.call_timeout", cfg.Tools.CallTimeout.String())
	row("tools.server_name", cfg.Tools.ServerName)
	shell := cfg.Native.Shell
	if shell == "" {
		shell = "(detected)"
	}
	row("native.shell", shell)

	if a.Project != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Project"), a.Project.Root)
	}
}
