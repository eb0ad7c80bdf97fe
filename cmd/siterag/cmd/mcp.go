package cmd

import (
	"fmt"

	"github.com/mediahaus/siterag/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP retrieval server",
	Long: `Start the MCP server for chunk retrieval.

The server communicates via stdio and provides two tools:
  - search_chunks: Search ingested chunks by query
  - get_chunk: Get a specific chunk by content hash

Example:
  siterag mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	storeClient, err := newStoreClient(cfg)
	if err != nil {
		return err
	}

	srv := mcp.NewServer(mcp.Config{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
	}, storeClient)

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server...")

	return srv.ServeStdio()
}
