package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var askShowSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question",
	Long: `Answers a single question from the indexed document and exits.

Greetings and exit phrases get the same canned replies as in chat.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the retrieved passages")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureQuery(cmd.Context(), false); err != nil {
		return err
	}

	session := assistantService.NewSession()
	reply := assistantService.Answer(cmd.Context(), session, args[0])

	fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
	if askShowSources {
		printSources(cmd, reply.Sources)
	}
	return nil
}

func printSources(cmd *cobra.Command, sources []domain.ScoredChunk) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Sources:")
	for i, sc := range sources {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%d] page %d (%.2f)\n", i+1, sc.Chunk.Page, sc.Score)
		fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", snippet(sc.Chunk.Content, 160))
	}
}

// snippet returns the first n runes of s on one line.
func snippet(s string, n int) string {
	runes := []rune(s)
	for i, r := range runes {
		if r == '\n' || r == '\r' || r == '\t' {
			runes[i] = ' '
		}
	}
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
