// Package observe provides an embedding service decorator that records
// Prometheus request metrics.
package observe

import (
	"context"
	"time"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/metrics"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Embedder counts and times calls to the inner embedder.
type Embedder struct {
	inner    driven.EmbeddingService
	provider string
}

// New wraps inner, labelling metrics with provider and the inner model name.
func New(inner driven.EmbeddingService, provider string) *Embedder {
	return &Embedder{inner: inner, provider: provider}
}

// Embed embeds text and records the outcome.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := e.inner.Embed(ctx, text)
	e.record(start, err)
	return vec, err
}

// EmbedBatch embeds texts and records the outcome.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := e.inner.EmbedBatch(ctx, texts)
	e.record(start, err)
	return vecs, err
}

func (e *Embedder) record(start time.Time, err error) {
	model := e.inner.ModelName()
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
		return
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, model).Observe(time.Since(start).Seconds())
}

// Dimensions returns the inner embedder's vector size.
func (e *Embedder) Dimensions() int { return e.inner.Dimensions() }

// ModelName returns the inner embedder's model.
func (e *Embedder) ModelName() string { return e.inner.ModelName() }

// Ping checks the inner embedder.
func (e *Embedder) Ping(ctx context.Context) error { return e.inner.Ping(ctx) }

// Close closes the inner embedder.
func (e *Embedder) Close() error { return e.inner.Close() }
