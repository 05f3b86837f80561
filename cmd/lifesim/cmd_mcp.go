package main

import (
	"fmt"

	"github.com/nvandessel/lifesim/internal/logging"
	"github.com/nvandessel/lifesim/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve simulation tools over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
lifesim_run, lifesim_patterns, lifesim_render and lifesim_history tools.
Tool calls use the configuration as defaults and record runs in the
store directory. Logs go to stderr.

Example MCP client configuration:
  {"mcpServers": {"lifesim": {"command": "lifesim", "args": ["mcp-server"]}}}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir, err := cfg.StoreDir()
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "lifesim",
				Version:  version,
				Dir:      dir,
				Defaults: cfg,
				Logger:   logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
			})
			if err != nil {
				return fmt.Errorf("failed to start MCP server: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			// Run closes the server when the client disconnects.
			return server.Run(ctx)
		},
	}
}
