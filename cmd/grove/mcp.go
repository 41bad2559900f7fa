// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskgrove/grove/internal/app"
	"github.com/taskgrove/grove/internal/toolserver"
)

// newMCPCommand creates the `grove mcp` command.
func newMCPCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tasks as MCP tools over stdio",
		Long: `Serve the tool projection over MCP on stdin/stdout.

Stdout carries the protocol; logs go to stderr. Each call runs under
tools.call_timeout from the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := toolserver.New(a.Tools, a.Dispatcher,
				toolserver.WithLogger(a.Logger),
				toolserver.WithName(a.Config.Tools.ServerName),
				toolserver.WithVersion(Version),
				toolserver.WithCallTimeout(a.Config.Tools.CallTimeout),
				toolserver.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout()),
			)
			if err != nil {
				return fmt.Errorf("%w: %w", errToolServer, err)
			}
			if err := srv.Serve(cmd.Context()); err != nil {
				return fmt.Errorf("%w: %w", errToolServer, err)
			}
			return nil
		},
	}
}
