package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, retrieval, AI providers and other options.

Use subcommands to change individual keys or to pick a provider interactively.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its config key, for example:

  docqa settings set chunk_size 800
  docqa settings set embedding.provider openai
  docqa settings set llm.api_key          (prompts without echo)

Run 'docqa settings keys' to list every key.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every setting key",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the settings and ping the AI providers",
	Args:  cobra.NoArgs,
	RunE:  runSettingsValidate,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to build and query the index.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that writes answers.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	settings, err := settingsService.Get()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current Settings")
	fmt.Fprintln(out, "================")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[Document]")
	fmt.Fprintf(out, "  Source: %s\n", settings.SourceDocumentPath)
	fmt.Fprintf(out, "  Index: %s\n", settings.IndexStoragePath)
	fmt.Fprintf(out, "  Chunk size: %d (overlap %d)\n", settings.ChunkSize, settings.Overlap)
	fmt.Fprintf(out, "  Drop blank chunks: %t\n", settings.TrimBlankChunks)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[Answers]")
	fmt.Fprintf(out, "  Assistant: %s\n", settings.AssistantName)
	fmt.Fprintf(out, "  Top k: %d\n", settings.TopK)
	fmt.Fprintf(out, "  Max answer tokens: %d\n", settings.MaxAnswerTokens)
	fmt.Fprintf(out, "  Timeout: %s\n", settings.AnswerTimeout)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[Embedding]")
	printProvider(out, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	if settings.Embedding.RateLimit > 0 {
		fmt.Fprintf(out, "  Rate limit: %.1f req/s\n", settings.Embedding.RateLimit)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[LLM]")
	printProvider(out, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[Cache]")
	if settings.Cache.Enabled() {
		fmt.Fprintf(out, "  Redis: %s (ttl %s)\n", settings.Cache.RedisAddr, settings.Cache.TTL)
	} else {
		fmt.Fprintln(out, "  Disabled")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func printProvider(out io.Writer, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	fmt.Fprintf(out, "  Provider: %s\n", provider.Description())
	fmt.Fprintf(out, "  Model: %s\n", model)
	if baseURL != "" {
		fmt.Fprintf(out, "  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			fmt.Fprintf(out, "  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			fmt.Fprintf(out, "  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	fmt.Fprintf(out, "  Status: %s\n", status)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Enter value for %s: ", key)
		value = readPassword()
		fmt.Fprintln(cmd.OutOrStdout())
	}

	if err := settingsService.Set(key, value); err != nil {
		return err
	}

	if strings.HasSuffix(key, "api_key") {
		value = maskAPIKey(value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	for _, k := range settingsService.Keys() {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	if _, err := settingsService.Get(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Settings: OK")

	fmt.Fprint(cmd.OutOrStdout(), "Embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "FAILED")
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "OK")

	fmt.Fprint(cmd.OutOrStdout(), "LLM provider... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "FAILED")
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "OK")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

// providerChoice collects a provider selection interactively.
type providerChoice struct {
	provider domain.AIProvider
	model    string
	apiKey   string
}

func chooseProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	title string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) (*providerChoice, error) {
	fmt.Fprintln(cmd.OutOrStdout(), title)
	for i, p := range providers {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, p.Description())
	}
	fmt.Fprint(cmd.OutOrStdout(), "\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	choice := &providerChoice{provider: providers[idx-1]}

	defaultModel := defaults[choice.provider]
	fmt.Fprintf(cmd.OutOrStdout(), "Enter model name [%s]: ", defaultModel)
	choice.model = readLine(reader)
	if choice.model == "" {
		choice.model = defaultModel
	}

	if choice.provider.RequiresAPIKey() {
		fmt.Fprint(cmd.OutOrStdout(), "Enter API key: ")
		choice.apiKey = readPassword()
		fmt.Fprintln(cmd.OutOrStdout())
		if choice.apiKey == "" {
			return nil, errors.New("API key is required for this provider")
		}
	}
	return choice, nil
}

func applyChoice(prefix string, choice *providerChoice) error {
	values := [][2]string{
		{prefix + ".provider", choice.provider.String()},
		{prefix + ".model", choice.model},
	}
	if choice.apiKey != "" {
		values = append(values, [2]string{prefix + ".api_key", choice.apiKey})
	}
	for _, kv := range values {
		if err := settingsService.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to configure %s: %w", prefix, err)
		}
	}
	return nil
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	choice, err := chooseProvider(cmd, reader, "Select Embedding Provider",
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}
	if err := applyChoice("embedding", choice); err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), "Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "OK")

	fmt.Fprintf(cmd.OutOrStdout(), "Embedding provider configured: %s (%s)\n", choice.provider.Description(), choice.model)
	fmt.Fprintln(cmd.OutOrStdout(), "Rebuild the index with 'docqa build' to use the new embeddings.")
	return nil
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	choice, err := chooseProvider(cmd, reader, "Select LLM Provider",
		domain.AllLLMProviders(), domain.DefaultLLMModels())
	if err != nil {
		return err
	}
	if err := applyChoice("llm", choice); err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), "Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "OK")

	fmt.Fprintf(cmd.OutOrStdout(), "LLM provider configured: %s (%s)\n", choice.provider.Description(), choice.model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
