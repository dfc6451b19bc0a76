package main

import (
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieMate/internal/agent"
	"github.com/vadimtrunov/MovieMate/internal/config"
	mcpserver "github.com/vadimtrunov/MovieMate/internal/mcp"
)

// newMCPServeCmd returns the "mcp-serve" subcommand. It exposes the movie
// tools over MCP on stdin/stdout; the host's own model does the routing, so no
// LLM client is created and no llm settings are required.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Serve the movie tools over MCP (stdio)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCatalogConfig(configPath)
			if err != nil {
				return err
			}

			// stdout carries the protocol; logs go to stderr.
			logger := config.SetupLogger(cfg.App.LogLevel)

			catalog, _ := initCatalog(cfg, logger)
			registry, err := agent.NewCatalogRegistry(catalog, logger)
			if err != nil {
				return err
			}

			srv := mcpserver.NewServer(registry, version, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
