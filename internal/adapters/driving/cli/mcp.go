package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes three tools, "answer", "retrieve" and "reset", plus the
index metadata and per-session history as resources. Idle sessions expire
after 30 minutes.

By default, the server communicates over stdio using JSON-RPC. Use --port to
serve streamable HTTP instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  docqa mcp

  # HTTP mode (for MCP Inspector, remote access)
  docqa mcp --port 8081`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	if err := ensureQuery(cmd.Context(), true); err != nil {
		return err
	}
	if err := ensureIndexer(false); err != nil {
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Assistant: assistantService,
		Retriever: retrieverService,
		Indexer:   indexService,
		TopK:      settings.TopK,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
