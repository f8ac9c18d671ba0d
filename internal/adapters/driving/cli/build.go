package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var buildCmd = &cobra.Command{
	Use:   "build [document]",
	Short: "Build the document index",
	Long: `Loads the document, splits it into overlapping chunks, embeds every chunk
and saves the index to index_storage_path.

The document defaults to source_document_path. The previous index is only
replaced when every step succeeds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

// stageIcons prefixes progress lines.
var stageIcons = map[driving.BuildStage]string{
	driving.StageLoad:  "📄",
	driving.StageSplit: "✂️ ",
	driving.StageEmbed: "🔗",
	driving.StageSave:  "💾",
}

func runBuild(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	source := settings.SourceDocumentPath
	if len(args) == 1 {
		source = args[0]
	}

	if err := ensureIndexer(true); err != nil {
		return err
	}

	report, err := indexService.Build(cmd.Context(), source, func(stage driving.BuildStage, message string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", stageIcons[stage], message)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Index saved to: %s\n", report.IndexPath)
	fmt.Fprintf(cmd.OutOrStdout(), "   %d pages, %d chunks, %d dimensions (%s) in %s\n",
		report.Pages, report.Chunks, report.Info.Dimensions, report.Info.EmbeddingModel,
		report.Duration.Round(time.Millisecond))
	return nil
}
