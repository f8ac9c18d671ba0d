package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the persisted index",
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index metadata",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

func init() {
	indexInfoCmd.Flags().BoolVar(&indexJSON, "json", false, "output as JSON")
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	if err := ensureIndexer(false); err != nil {
		return err
	}

	info, err := indexService.Info(cmd.Context())
	if err != nil {
		return err
	}

	if indexJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal index info: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Index")
	fmt.Fprintln(cmd.OutOrStdout(), "=====")
	fmt.Fprintf(cmd.OutOrStdout(), "  Format version:  %d\n", info.FormatVersion)
	fmt.Fprintf(cmd.OutOrStdout(), "  Embedding model: %s\n", info.EmbeddingModel)
	fmt.Fprintf(cmd.OutOrStdout(), "  Dimensions:      %d\n", info.Dimensions)
	fmt.Fprintf(cmd.OutOrStdout(), "  Chunks:          %d\n", info.ChunkCount)
	fmt.Fprintf(cmd.OutOrStdout(), "  Created:         %s\n", info.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}
