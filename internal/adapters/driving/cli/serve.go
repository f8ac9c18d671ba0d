package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/api"
	"github.com/custodia-labs/docqa/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP query API",
	Long: `Serves the JSON query API:

  POST /v1/answer                 {"question": "...", "session_id": "..."}
  POST /v1/retrieve               {"query": "...", "k": 3}
  POST /v1/sessions/{id}/reset
  GET  /healthz
  GET  /metrics                   Prometheus metrics

The index is reloaded automatically when 'docqa build' replaces it, and
edited prompt files apply to the next answer.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	addr := serveAddr
	if addr == "" {
		addr = settings.Server.Addr
	}

	if err := ensureQuery(cmd.Context(), true); err != nil {
		return err
	}

	var stats api.IndexStats
	if s, ok := retrieverService.(api.IndexStats); ok {
		stats = s
	}

	server := api.NewServer(api.Config{
		Assistant: assistantService,
		Retriever: retrieverService,
		Index:     stats,
		TopK:      settings.TopK,
		Logger:    logger.Zap(),
	})

	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on %s\n", addr)
	return server.Run(cmd.Context(), addr)
}
