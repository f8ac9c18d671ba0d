package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidConfiguration indicates bad chunk_size, overlap, top_k or provider values.
	// It is fatal at startup.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidArgument indicates a malformed call argument, such as k <= 0.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexNotFound indicates no persisted index exists at the storage path.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexFormat indicates a persisted index is corrupted or of an incompatible format.
	ErrIndexFormat = errors.New("invalid index format")

	// ErrDimensionMismatch indicates vectors of different sizes were combined.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbedding indicates the embedding service failed to embed text.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the language model failed to produce an answer.
	ErrGeneration = errors.New("generation failed")

	// ErrSessionEnded indicates input was sent to a session that has ended.
	ErrSessionEnded = errors.New("session ended")

	// ErrNoContent indicates the source document produced no text.
	ErrNoContent = errors.New("no content")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUnsupportedType indicates an unknown provider or processor name.
	ErrUnsupportedType = errors.New("unsupported type")
)
