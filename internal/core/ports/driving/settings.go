package driving

import "github.com/custodia-labs/docqa/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings merged over defaults.
	Get() (*domain.Settings, error)

	// Set updates a single setting by its config key.
	Set(key, value string) error

	// Keys returns every recognised config key.
	Keys() []string

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
