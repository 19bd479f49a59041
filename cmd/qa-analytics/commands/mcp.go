package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"qa-analytics/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the analytics views as MCP tools on stdio",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, _, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	server, err := mcp.NewServer(engine, mcp.Options{Version: Version, Charts: cfg.EnableMermaidCharts})
	if err != nil {
		return err
	}
	log.Info().Msg("MCP Server starting Stdio loop")
	return server.Run(ctx)
}
