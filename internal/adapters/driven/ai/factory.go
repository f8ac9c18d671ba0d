// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/cache"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/observe"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ratelimit"
	anthropicllm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/metrics"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the AI services built for one process.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues, such as an unreachable cache.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds the embedding chain and, when withLLM is set, the LLM service.
// Both are pinged before being returned.
func Init(settings *domain.Settings, withLLM bool) (*InitResult, error) {
	result := &InitResult{}

	embedder, warnings, err := CreateAndValidateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}
	result.EmbeddingService = embedder
	result.Warnings = append(result.Warnings, warnings...)

	if withLLM {
		llm, err := CreateAndValidateLLMService(&settings.LLM)
		if err != nil {
			result.Close()
			return nil, err
		}
		result.LLMService = llm
	}

	return result, nil
}

// CreateAndValidateEmbeddingService creates the embedding service, validates
// connectivity and wraps it with metrics, rate limiting and caching as
// configured. Cache problems are returned as warnings.
func CreateAndValidateEmbeddingService(settings *domain.Settings) (driven.EmbeddingService, []string, error) {
	if settings == nil || !settings.Embedding.IsConfigured() {
		return nil, nil, fmt.Errorf("%w: embedding provider is not configured. Run 'docqa settings set embedding.provider <provider>' to fix",
			domain.ErrEmbeddingUnavailable)
	}

	svc, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	wrapped, warnings := WrapEmbeddingService(svc, settings)
	return wrapped, warnings, nil
}

// WrapEmbeddingService decorates svc. Provider calls are measured, then rate
// limited; the cache sits outermost so hits skip both.
func WrapEmbeddingService(svc driven.EmbeddingService, settings *domain.Settings) (driven.EmbeddingService, []string) {
	var warnings []string

	wrapped := driven.EmbeddingService(observe.New(svc, settings.Embedding.Provider.String()))

	if settings.Embedding.RateLimit > 0 {
		wrapped = ratelimit.New(wrapped, settings.Embedding.RateLimit, 1)
	}

	if settings.Cache.Enabled() {
		store, err := connectCache(settings.Cache)
		if err != nil {
			msg := fmt.Sprintf("embedding cache disabled: %v", err)
			logger.Warn("%s", msg)
			warnings = append(warnings, msg)
		} else {
			wrapped = cache.New(wrapped, store, redis.ErrKeyNotFound, metrics.EmbeddingCacheTotal,
				logger.Zap().With(zap.String("component", "embedding-cache")))
		}
	}

	return wrapped, warnings
}

// connectCache opens and pings the Redis cache.
func connectCache(cfg domain.CacheSettings) (*redis.KVStore, error) {
	store, err := redis.NewKVStore(redis.Config{Addr: cfg.RedisAddr, TTL: cfg.TTL})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: llm provider is not configured. Run 'docqa settings set llm.provider <provider>' to fix",
			domain.ErrLLMUnavailable)
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the base embedding service for the provider.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrInvalidConfiguration)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderHashing:
		dims, err := hashing.DimensionsFor(settings.Model)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
		}
		return hashing.NewEmbeddingService(dims), nil

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama, openai or hashing",
			domain.ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the LLM service for the provider.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no llm settings", domain.ErrInvalidConfiguration)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderHashing:
		return nil, fmt.Errorf("%w: hashing is an embedding provider only", domain.ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: llm provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}
