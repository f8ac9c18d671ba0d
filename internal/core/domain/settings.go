package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any OpenAI-compatible server.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderHashing:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name (embedding_model_id).
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RateLimit caps embedding requests per second during builds. Zero disables it.
	RateLimit float64

	// BatchSize is the number of texts sent per EmbedBatch call.
	BatchSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name (generation_model_id).
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHashing {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// CacheSettings configures the optional Redis embedding cache.
type CacheSettings struct {
	// RedisAddr enables the cache when non-empty.
	RedisAddr string

	// TTL is how long cached embeddings live.
	TTL time.Duration
}

// Enabled reports whether an embedding cache should be used.
func (c CacheSettings) Enabled() bool {
	return c.RedisAddr != ""
}

// ServerSettings configures the HTTP query API.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
}

// Settings holds all application settings.
type Settings struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// Overlap is the number of characters shared with the previous chunk.
	Overlap int

	// TopK is the number of passages retrieved per question.
	TopK int

	// SourceDocumentPath is the PDF indexed by the build command.
	SourceDocumentPath string

	// IndexStoragePath is the directory holding the persisted index.
	IndexStoragePath string

	// MaxAnswerTokens caps the generated answer length.
	MaxAnswerTokens int

	// AnswerTimeout bounds a single generation call.
	AnswerTimeout time.Duration

	// AssistantName is used in greetings and in the answer prompt.
	AssistantName string

	// TrimBlankChunks drops whitespace-only chunks after chunking.
	TrimBlankChunks bool

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Cache holds embedding cache settings.
	Cache CacheSettings

	// Server holds HTTP server settings.
	Server ServerSettings
}

// DefaultSettings returns settings matching the reference behaviour:
// 500-character chunks with 100 overlap, top-3 retrieval and 200-token answers.
func DefaultSettings() Settings {
	return Settings{
		ChunkSize:          500,
		Overlap:            100,
		TopK:               3,
		SourceDocumentPath: "document.pdf",
		IndexStoragePath:   "index",
		MaxAnswerTokens:    200,
		AnswerTimeout:      60 * time.Second,
		AssistantName:      "Document Assistant",
		TrimBlankChunks:    true,
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultEmbeddingModels()[AIProviderOllama],
			BatchSize: 32,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
		},
		Cache: CacheSettings{
			TTL: 7 * 24 * time.Hour,
		},
		Server: ServerSettings{
			Addr: ":8080",
		},
	}
}

// Validate checks the numeric invariants. Errors wrap ErrInvalidConfiguration.
func (s Settings) Validate() error {
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfiguration, s.ChunkSize)
	}
	if s.Overlap < 0 || s.Overlap >= s.ChunkSize {
		return fmt.Errorf("%w: overlap must satisfy 0 <= overlap < chunk_size, got overlap=%d chunk_size=%d",
			ErrInvalidConfiguration, s.Overlap, s.ChunkSize)
	}
	if s.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfiguration, s.TopK)
	}
	if s.MaxAnswerTokens <= 0 {
		return fmt.Errorf("%w: max_answer_tokens must be positive, got %d", ErrInvalidConfiguration, s.MaxAnswerTokens)
	}
	if s.AnswerTimeout <= 0 {
		return fmt.Errorf("%w: answer_timeout_seconds must be positive", ErrInvalidConfiguration)
	}
	if s.IndexStoragePath == "" {
		return fmt.Errorf("%w: index_storage_path is required", ErrInvalidConfiguration)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfiguration, s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfiguration, s.LLM.Provider)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderHashing,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:  "all-minilm",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderHashing: "hashing-512",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Built-in
		"hashing-512": 512,
	}
}
