package app

import (
	"github.com/spf13/cobra"

	mcpserver "edgealign/internal/mcp"
)

func newMCPCmd(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the optimizer as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, args []string, a *App) error {
			ctx := cmd.Context()
			srv := mcpserver.New(mcpserver.Deps{
				Runs:    a.Journal(ctx),
				Logger:  a.logger,
				Name:    a.cfg.MCP.Name,
				Version: a.cfg.MCP.Version,
			})
			return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		}),
	}
}
