package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Retriever returns the passages most relevant to a query.
type Retriever interface {
	// Retrieve returns up to k chunks in relevance order.
	Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error)

	// RetrieveScored returns up to k chunks with their similarity scores.
	RetrieveScored(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}
