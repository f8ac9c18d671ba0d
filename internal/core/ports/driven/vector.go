package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VectorIndex provides semantic similarity search over chunk vectors.
// An index is read-only once built or restored.
type VectorIndex interface {
	// Search returns up to k chunks ordered by descending cosine similarity.
	// Ties keep insertion order. k <= 0 fails with domain.ErrInvalidArgument.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error)

	// Len returns the number of stored entries.
	Len() int

	// Dimensions returns the vector size shared by every entry.
	Dimensions() int

	// Snapshot returns the serialisable content of the index.
	Snapshot() *IndexSnapshot
}

// VectorIndexFactory creates vector indexes.
type VectorIndexFactory interface {
	// Build embeds every chunk and returns a new index.
	// Any embedding failure fails the whole build with domain.ErrEmbedding.
	Build(ctx context.Context, chunks []domain.Chunk, embedder EmbeddingService) (VectorIndex, error)

	// Restore recreates an index from a persisted snapshot.
	Restore(snapshot *IndexSnapshot) (VectorIndex, error)
}

// IndexEntry pairs a chunk with its embedding.
type IndexEntry struct {
	Chunk  domain.Chunk
	Vector []float32
}

// IndexSnapshot is the persisted form of a vector index.
type IndexSnapshot struct {
	Info    domain.IndexInfo
	Entries []IndexEntry
}

// IndexStore persists vector index snapshots.
type IndexStore interface {
	// Save writes the snapshot atomically, replacing any existing index.
	Save(ctx context.Context, snapshot *IndexSnapshot) error

	// Load reads the persisted snapshot.
	// Returns domain.ErrIndexNotFound or domain.ErrIndexFormat on failure.
	Load(ctx context.Context) (*IndexSnapshot, error)

	// Info reads only the index metadata, with the same errors as Load.
	Info(ctx context.Context) (*domain.IndexInfo, error)

	// Path returns the index file location.
	Path() string
}

// IndexWatcher reports when the persisted index has been replaced.
type IndexWatcher interface {
	// Watch emits a value after each completed replacement until ctx is done,
	// then closes the channel.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
