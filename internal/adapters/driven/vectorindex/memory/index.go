// Package memory provides an in-memory flat vector index with cosine
// similarity search.
//
// Scores are cosine similarities in [-1, 1]; higher is more similar. Search is
// an exhaustive scan, which suits the single-document indexes docqa builds.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Verify interface compliance.
var (
	_ driven.VectorIndex        = (*Index)(nil)
	_ driven.VectorIndexFactory = (*Factory)(nil)
)

// DefaultBatchSize is the number of chunks embedded per EmbedBatch call.
const DefaultBatchSize = 32

// Index is an immutable flat vector index.
type Index struct {
	info    domain.IndexInfo
	entries []driven.IndexEntry
	norms   []float64
}

// Search returns up to k chunks ordered by descending cosine similarity.
// Entries with equal scores keep their insertion order.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(i.entries) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if len(query) != i.info.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), i.info.Dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryNorm := norm(query)
	results := make([]domain.ScoredChunk, len(i.entries))
	for n, e := range i.entries {
		results[n] = domain.ScoredChunk{
			Chunk: e.Chunk,
			Score: cosine(query, queryNorm, e.Vector, i.norms[n]),
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of stored entries.
func (i *Index) Len() int {
	return len(i.entries)
}

// Dimensions returns the vector size shared by every entry.
func (i *Index) Dimensions() int {
	return i.info.Dimensions
}

// Info returns the index metadata.
func (i *Index) Info() domain.IndexInfo {
	return i.info
}

// Snapshot returns the serialisable content of the index.
func (i *Index) Snapshot() *driven.IndexSnapshot {
	entries := make([]driven.IndexEntry, len(i.entries))
	copy(entries, i.entries)
	return &driven.IndexSnapshot{Info: i.info, Entries: entries}
}

// Factory builds and restores in-memory indexes.
type Factory struct {
	batchSize int
	now       func() time.Time
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) FactoryOption {
	return func(f *Factory) {
		if n > 0 {
			f.batchSize = n
		}
	}
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *Factory) {
		f.now = now
	}
}

// NewFactory creates an index factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{batchSize: DefaultBatchSize, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build embeds every chunk in order and returns a new index. The whole build
// fails with domain.ErrEmbedding if any batch fails or returns unusable vectors.
func (f *Factory) Build(ctx context.Context, chunks []domain.Chunk, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	entries := make([]driven.IndexEntry, 0, len(chunks))
	dims := 0

	for start := 0; start < len(chunks); start += f.batchSize {
		end := min(start+f.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for n, c := range batch {
			texts[n] = c.Content
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: chunks %d-%d: %w", domain.ErrEmbedding, start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: expected %d vectors, got %d", domain.ErrEmbedding, len(batch), len(vectors))
		}

		for n, v := range vectors {
			if dims == 0 {
				dims = len(v)
			}
			if len(v) == 0 || len(v) != dims {
				return nil, fmt.Errorf("%w: chunk %d: %w: got %d dimensions, want %d",
					domain.ErrEmbedding, start+n, domain.ErrDimensionMismatch, len(v), dims)
			}
			entries = append(entries, driven.IndexEntry{Chunk: batch[n], Vector: v})
		}

		logger.Debug("embedded chunks %d-%d of %d", start+1, end, len(chunks))
	}

	if want := embedder.Dimensions(); dims != 0 && want > 0 && dims != want {
		logger.Warn("embedder reported %d dimensions but produced %d", want, dims)
	}
	if dims == 0 {
		dims = embedder.Dimensions()
	}

	return newIndex(domain.IndexInfo{
		Dimensions:     dims,
		EmbeddingModel: embedder.ModelName(),
		ChunkCount:     len(entries),
		CreatedAt:      f.now().UTC(),
	}, entries), nil
}

// Restore recreates an index from a persisted snapshot.
// Vectors whose size differs from the recorded dimensions fail with domain.ErrIndexFormat.
func (f *Factory) Restore(snapshot *driven.IndexSnapshot) (driven.VectorIndex, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", domain.ErrIndexFormat)
	}

	for n, e := range snapshot.Entries {
		if len(e.Vector) != snapshot.Info.Dimensions {
			return nil, fmt.Errorf("%w: entry %d has %d dimensions, index declares %d",
				domain.ErrIndexFormat, n, len(e.Vector), snapshot.Info.Dimensions)
		}
	}

	info := snapshot.Info
	info.ChunkCount = len(snapshot.Entries)

	entries := make([]driven.IndexEntry, len(snapshot.Entries))
	copy(entries, snapshot.Entries)
	return newIndex(info, entries), nil
}

func newIndex(info domain.IndexInfo, entries []driven.IndexEntry) *Index {
	norms := make([]float64, len(entries))
	for n, e := range entries {
		norms[n] = norm(e.Vector)
	}
	return &Index{info: info, entries: entries, norms: norms}
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero magnitude.
func cosine(a []float32, na float64, b []float32, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
	}
	return dot / (na * nb)
}
