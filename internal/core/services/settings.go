package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize       = "chunk_size"
	keyOverlap         = "overlap"
	keyTopK            = "top_k"
	keySourcePath      = "source_document_path"
	keyIndexPath       = "index_storage_path"
	keyMaxAnswerTokens = "max_answer_tokens"
	keyAnswerTimeout   = "answer_timeout_seconds"
	keyAssistantName   = "assistant_name"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedRateLimit  = "embedding.rate_limit"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyCacheRedisAddr  = "cache.redis_addr"
	keyCacheTTLHours   = "cache.ttl_hours"
	keyServerAddr      = "server.addr"
	keyTrimBlank       = "postprocessors.trim"

	// Flat aliases for the two model keys.
	keyEmbeddingModelID  = "embedding_model_id"
	keyGenerationModelID = "generation_model_id"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

// settingKinds lists every recognised key and how its value is parsed.
var settingKinds = map[string]valueKind{
	keyChunkSize:         kindInt,
	keyOverlap:           kindInt,
	keyTopK:              kindInt,
	keySourcePath:        kindString,
	keyIndexPath:         kindString,
	keyMaxAnswerTokens:   kindInt,
	keyAnswerTimeout:     kindInt,
	keyAssistantName:     kindString,
	keyEmbedProvider:     kindString,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyEmbedAPIKey:       kindString,
	keyEmbedRateLimit:    kindFloat,
	keyEmbedBatchSize:    kindInt,
	keyLLMProvider:       kindString,
	keyLLMModel:          kindString,
	keyLLMBaseURL:        kindString,
	keyLLMAPIKey:         kindString,
	keyCacheRedisAddr:    kindString,
	keyCacheTTLHours:     kindInt,
	keyServerAddr:        kindString,
	keyTrimBlank:         kindBool,
	keyEmbeddingModelID:  kindString,
	keyGenerationModelID: kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings merged over the defaults and
// validates them. Errors wrap domain.ErrInvalidConfiguration.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := s.read()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// read merges stored values over defaults without validating.
func (s *SettingsService) read() *domain.Settings {
	defaults := domain.DefaultSettings()

	embedProvider := domain.AIProvider(s.getString(keyEmbedProvider, defaults.Embedding.Provider.String()))
	llmProvider := domain.AIProvider(s.getString(keyLLMProvider, defaults.LLM.Provider.String()))

	return &domain.Settings{
		ChunkSize:          s.getInt(keyChunkSize, defaults.ChunkSize),
		Overlap:            s.getInt(keyOverlap, defaults.Overlap),
		TopK:               s.getInt(keyTopK, defaults.TopK),
		SourceDocumentPath: s.getString(keySourcePath, defaults.SourceDocumentPath),
		IndexStoragePath:   s.getString(keyIndexPath, defaults.IndexStoragePath),
		MaxAnswerTokens:    s.getInt(keyMaxAnswerTokens, defaults.MaxAnswerTokens),
		AnswerTimeout: time.Duration(s.getInt(keyAnswerTimeout, int(defaults.AnswerTimeout/time.Second))) *
			time.Second,
		AssistantName:   s.getString(keyAssistantName, defaults.AssistantName),
		TrimBlankChunks: s.getBool(keyTrimBlank, defaults.TrimBlankChunks),
		Embedding: domain.EmbeddingSettings{
			Provider: embedProvider,
			Model: s.getString(keyEmbedModel,
				s.getString(keyEmbeddingModelID, domain.DefaultEmbeddingModels()[embedProvider])),
			BaseURL:   s.configStore.GetString(keyEmbedBaseURL), // No default - adapters pick their own
			APIKey:    s.configStore.GetString(keyEmbedAPIKey),
			RateLimit: s.getFloat(keyEmbedRateLimit, defaults.Embedding.RateLimit),
			BatchSize: s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model: s.getString(keyLLMModel,
				s.getString(keyGenerationModelID, domain.DefaultLLMModels()[llmProvider])),
			BaseURL: s.configStore.GetString(keyLLMBaseURL),
			APIKey:  s.configStore.GetString(keyLLMAPIKey),
		},
		Cache: domain.CacheSettings{
			RedisAddr: s.configStore.GetString(keyCacheRedisAddr),
			TTL: time.Duration(s.getInt(keyCacheTTLHours, int(defaults.Cache.TTL/time.Hour))) *
				time.Hour,
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}
}

// Set parses value for key, checks that the resulting settings are still
// valid and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidConfiguration, key)
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfiguration, key, err)
	}

	if err := s.checkProvider(key, value); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	if err := s.read().Validate(); err != nil {
		return fmt.Errorf("%s saved but settings are now invalid: %w", key, err)
	}
	return nil
}

// Keys returns every recognised config key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings := s.read()
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings := s.read()
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// checkProvider rejects providers that cannot serve the role being set.
func (s *SettingsService) checkProvider(key, value string) error {
	var allowed []domain.AIProvider
	switch key {
	case keyEmbedProvider:
		allowed = domain.AllEmbeddingProviders()
	case keyLLMProvider:
		allowed = domain.AllLLMProviders()
	default:
		return nil
	}

	provider := domain.AIProvider(strings.TrimSpace(value))
	for _, p := range allowed {
		if p == provider {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, p := range allowed {
		names[i] = p.String()
	}
	return fmt.Errorf("%w: %s must be one of %s, got %q",
		domain.ErrInvalidConfiguration, key, strings.Join(names, ", "), value)
}

func parseSetting(kind valueKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}
