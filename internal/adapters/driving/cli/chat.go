package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const restartCommand = "/restart"

var (
	chatWatch       bool
	chatShowSources bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat about the document",
	Long: `Starts a line-oriented conversation on stdin and stdout.

Say "hi" for a greeting and "bye" (or "exit", "quit", "thanks") to end the
chat. After the chat has ended, type /restart to start over. Press Ctrl-D to
leave at any time.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatWatch, "watch", false, "reload the index when it is rebuilt and prompts when they are edited")
	chatCmd.Flags().BoolVar(&chatShowSources, "sources", false, "print the retrieved passages")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := ensureQuery(cmd.Context(), chatWatch); err != nil {
		return err
	}

	in := cmd.InOrStdin()
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	session := assistantService.NewSession()
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(cmd.OutOrStdout(), "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == restartCommand {
			assistantService.Reset(session)
			fmt.Fprintln(cmd.OutOrStdout(), "🔁 Chat cleared.")
			continue
		}

		reply := assistantService.Answer(cmd.Context(), session, line)
		fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
		if chatShowSources {
			printSources(cmd, reply.Sources)
		}
		if reply.Route == domain.RouteExit {
			fmt.Fprintf(cmd.OutOrStdout(), "Chat ended. Type %s to start over.\n", restartCommand)
		}
	}
	return scanner.Err()
}
