package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func hashingSettings() *domain.Settings {
	s := domain.DefaultSettings()
	s.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderHashing, Model: "hashing-64"}
	return &s
}

func ollamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantErr   error
		wantModel string
		wantDims  int
	}{
		{
			name:    "nil settings",
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name:      "ollama",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
			wantModel: "nomic-embed-text",
			wantDims:  768,
		},
		{
			name:      "openai",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
			wantModel: "text-embedding-3-small",
			wantDims:  1536,
		},
		{
			name:     "openai without key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrInvalidConfiguration,
		},
		{
			name:      "hashing default model",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderHashing},
			wantModel: "hashing-512",
			wantDims:  512,
		},
		{
			name:     "hashing bad model",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderHashing, Model: "hashing-x"},
			wantErr:  domain.ErrInvalidConfiguration,
		},
		{
			name:     "anthropic has no embeddings",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantErr:  domain.ErrUnsupportedType,
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "cohere"},
			wantErr:  domain.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantErr   error
		wantModel string
	}{
		{name: "nil settings", wantErr: domain.ErrInvalidConfiguration},
		{
			name:      "ollama default model",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama},
			wantModel: "llama3",
		},
		{
			name:      "openai",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o"},
			wantModel: "gpt-4o",
		},
		{
			name:      "anthropic",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantModel: "claude-3-5-sonnet-latest",
		},
		{
			name:     "anthropic without key",
			settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic},
			wantErr:  domain.ErrInvalidConfiguration,
		},
		{
			name:     "hashing cannot generate",
			settings: &domain.LLMSettings{Provider: domain.AIProviderHashing},
			wantErr:  domain.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateAndValidateEmbeddingService_Hashing(t *testing.T) {
	svc, warnings, err := CreateAndValidateEmbeddingService(hashingSettings())
	require.NoError(t, err)
	defer svc.Close()

	assert.Empty(t, warnings)
	assert.Equal(t, "hashing-64", svc.ModelName())
	assert.Equal(t, 64, svc.Dimensions())

	vec, err := svc.Embed(context.Background(), "clock in by 9am")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
}

func TestCreateAndValidateEmbeddingService_NotConfigured(t *testing.T) {
	s := domain.DefaultSettings()
	s.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}

	_, _, err := CreateAndValidateEmbeddingService(&s)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, _, err = CreateAndValidateEmbeddingService(nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestCreateAndValidateEmbeddingService_Unreachable(t *testing.T) {
	srv := ollamaServer(t, http.StatusServiceUnavailable)
	s := domain.DefaultSettings()
	s.Embedding.BaseURL = srv.URL

	_, _, err := CreateAndValidateEmbeddingService(&s)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestWrapEmbeddingService_CacheUnavailableIsAWarning(t *testing.T) {
	s := hashingSettings()
	s.Embedding.RateLimit = 1000
	s.Cache.RedisAddr = "127.0.0.1:1"

	svc, warnings, err := CreateAndValidateEmbeddingService(s)
	require.NoError(t, err)
	defer svc.Close()

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "embedding cache disabled")

	_, err = svc.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.NoError(t, err)
}

func TestCreateAndValidateLLMService(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		srv := ollamaServer(t, http.StatusOK)
		svc, err := CreateAndValidateLLMService(&domain.LLMSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		require.NoError(t, err)
		assert.Equal(t, "llama3", svc.ModelName())
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := ollamaServer(t, http.StatusInternalServerError)
		_, err := CreateAndValidateLLMService(&domain.LLMSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := CreateAndValidateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOpenAI})
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}

func TestInit_WithoutLLM(t *testing.T) {
	result, err := Init(hashingSettings(), false)
	require.NoError(t, err)
	defer result.Close()

	assert.NotNil(t, result.EmbeddingService)
	assert.Nil(t, result.LLMService)
}
