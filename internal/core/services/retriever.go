package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/metrics"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// DefaultTopK is the number of passages retrieved when no setting overrides it.
const DefaultTopK = 3

// dimensionCheckText is embedded to learn the query vector size of an
// embedder that reports 0 dimensions.
const dimensionCheckText = "dimension check"

// RetrieverService embeds queries and searches the serving index.
// The index can be swapped while queries are in flight.
type RetrieverService struct {
	embedder driven.EmbeddingService
	index    atomic.Pointer[driven.VectorIndex]

	// queryDims caches the vector size measured by embedding
	// dimensionCheckText.
	queryDims atomic.Int64
}

// NewRetrieverService creates a retriever over a loaded index.
// The embedder must produce vectors of the index's dimension.
func NewRetrieverService(
	ctx context.Context,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
) (*RetrieverService, error) {
	if index == nil || embedder == nil {
		return nil, fmt.Errorf("%w: retriever needs an index and an embedder", domain.ErrInvalidConfiguration)
	}
	r := &RetrieverService{embedder: embedder}
	if err := r.Swap(ctx, index); err != nil {
		return nil, err
	}
	return r, nil
}

// OpenRetriever loads the persisted index from store and wraps it in a retriever.
func OpenRetriever(
	ctx context.Context,
	store driven.IndexStore,
	factory driven.VectorIndexFactory,
	embedder driven.EmbeddingService,
) (*RetrieverService, error) {
	index, err := loadIndex(ctx, store, factory)
	if err != nil {
		return nil, err
	}
	r, err := NewRetrieverService(ctx, index, embedder)
	if err != nil {
		return nil, err
	}
	metrics.IndexChunks.Set(float64(index.Len()))
	return r, nil
}

// Retrieve returns up to k chunks in relevance order.
func (r *RetrieverService) Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	scored, err := r.RetrieveScored(ctx, query, k)
	if err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(scored))
	for i, sc := range scored {
		chunks[i] = sc.Chunk
	}
	return chunks, nil
}

// RetrieveScored returns up to k chunks with their cosine similarity scores.
func (r *RetrieverService) RetrieveScored(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrEmbedding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: query: %w", domain.ErrEmbedding, err)
	}

	return r.current().Search(ctx, vector, k)
}

// Len returns the number of chunks in the serving index.
func (r *RetrieverService) Len() int {
	return r.current().Len()
}

// Swap replaces the serving index. An index whose dimension differs from the
// vectors the embedder produces is rejected and the current index keeps
// serving. When the embedder reports 0 dimensions a short text is embedded
// to measure them.
func (r *RetrieverService) Swap(ctx context.Context, index driven.VectorIndex) error {
	if index.Len() > 0 {
		dims, err := r.dimensions(ctx)
		if err != nil {
			return err
		}
		if index.Dimensions() != dims {
			return fmt.Errorf("%w: %w: index has %d dimensions, embedder %s produces %d",
				domain.ErrInvalidConfiguration, domain.ErrDimensionMismatch,
				index.Dimensions(), r.embedder.ModelName(), dims)
		}
	}
	r.index.Store(&index)
	return nil
}

// dimensions returns the size of the vectors the embedder produces.
func (r *RetrieverService) dimensions(ctx context.Context) (int, error) {
	if dims := r.embedder.Dimensions(); dims > 0 {
		return dims, nil
	}
	if dims := r.queryDims.Load(); dims > 0 {
		return int(dims), nil
	}

	vector, err := r.embedder.Embed(ctx, dimensionCheckText)
	if err != nil {
		if errors.Is(err, domain.ErrEmbedding) {
			return 0, fmt.Errorf("measure query dimensions: %w", err)
		}
		return 0, fmt.Errorf("%w: measure query dimensions: %w", domain.ErrEmbedding, err)
	}
	if len(vector) == 0 {
		return 0, fmt.Errorf("%w: embedder %s returned an empty vector", domain.ErrEmbedding, r.embedder.ModelName())
	}
	r.queryDims.Store(int64(len(vector)))
	return len(vector), nil
}

// Reload reads the persisted index again and swaps it in.
func (r *RetrieverService) Reload(ctx context.Context, store driven.IndexStore, factory driven.VectorIndexFactory) error {
	index, err := loadIndex(ctx, store, factory)
	if err == nil {
		err = r.Swap(ctx, index)
	}
	if err != nil {
		metrics.IndexReloadsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.IndexReloadsTotal.WithLabelValues("success").Inc()
	metrics.IndexChunks.Set(float64(index.Len()))
	logger.Info("reloaded index: %d chunks", index.Len())
	return nil
}

// WatchAndReload reloads the index each time the store reports a replacement.
// It blocks until ctx is done. Failed reloads are logged and the previous
// index keeps serving.
func (r *RetrieverService) WatchAndReload(
	ctx context.Context,
	watcher driven.IndexWatcher,
	store driven.IndexStore,
	factory driven.VectorIndexFactory,
) error {
	events, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch index: %w", err)
	}
	for range events {
		if err := r.Reload(ctx, store, factory); err != nil {
			logger.Warn("index reload failed, keeping previous index: %v", err)
		}
	}
	return nil
}

func (r *RetrieverService) current() driven.VectorIndex {
	return *r.index.Load()
}

func loadIndex(ctx context.Context, store driven.IndexStore, factory driven.VectorIndexFactory) (driven.VectorIndex, error) {
	snapshot, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index from %s: %w", store.Path(), err)
	}
	index, err := factory.Restore(snapshot)
	if err != nil {
		return nil, fmt.Errorf("restore index: %w", err)
	}
	return index, nil
}
