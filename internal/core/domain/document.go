package domain

import "time"

// Document represents one unit of loaded source text.
// The PDF loader produces one Document per page.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path).
	URI string

	// Title is the human-readable title.
	Title string

	// Page is the 1-based page number, or 0 when the source has no pages.
	Page int

	// Content is the full text content of the page before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any
}

// Chunk represents a retrievable unit within a document.
type Chunk struct {
	// ID is the stable identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the whole index build.
	Position int

	// Page is the source page number copied from the Document.
	Page int

	// Offset is the rune offset of the chunk inside the page content.
	Offset int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ScoredChunk is a chunk returned by similarity search.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity to the query. Higher is more similar.
	Score float64
}

// IndexInfo describes a persisted vector index.
type IndexInfo struct {
	// FormatVersion is the on-disk format version.
	FormatVersion int `json:"format_version"`

	// Dimensions is the embedding vector size shared by every entry.
	Dimensions int `json:"dimensions"`

	// EmbeddingModel is the model that produced the vectors.
	EmbeddingModel string `json:"embedding_model"`

	// ChunkCount is the number of stored entries.
	ChunkCount int `json:"chunk_count"`

	// CreatedAt is when the index was built.
	CreatedAt time.Time `json:"created_at"`
}
