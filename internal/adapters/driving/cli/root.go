// Package cli provides the docqa command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var (
	configPath string
	envFile    string
	verbose    bool
)

// Services used by commands. Tests replace them with mocks; otherwise they
// are built on first use from the loaded settings.
var (
	settingsService  driving.SettingsService
	indexService     driving.Indexer
	assistantService driving.Assistant
	retrieverService driving.Retriever
)

// closers release the expensive handles opened while running a command.
var closers []func()

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about a document",
	Long: `docqa answers questions about a single document using only its content.

Build the index once with 'docqa build', then ask questions with 'docqa ask',
'docqa chat', the HTTP API ('docqa serve') or the MCP server ('docqa mcp').`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.docqa/config.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
}

// Execute runs the root command and releases resources afterwards.
// Long-running commands stop when ctx is cancelled.
func Execute(ctx context.Context) error {
	defer closeAll()
	return rootCmd.ExecuteContext(ctx)
}

// setup configures logging and the settings service.
func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if err := file.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	if settingsService != nil {
		return nil
	}

	store, err := file.NewConfigStore(configPath)
	if err != nil {
		return err
	}
	logger.Debug("config: %s", store.Path())

	settingsService = services.NewSettingsService(store, ai.NewConfigValidator())
	return nil
}

func onClose(fn func()) {
	closers = append(closers, fn)
}

func closeAll() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}

var errNoSettings = errors.New("settings service not configured")
