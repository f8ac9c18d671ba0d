// Package ratelimit provides an embedding service decorator that caps the
// request rate sent to the provider.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Embedder waits on a token bucket before each request to the inner embedder.
// One Embed or EmbedBatch call consumes one token.
type Embedder struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// New wraps inner with a limit of requestsPerSecond and the given burst.
// A burst below one is raised to one.
func New(inner driven.EmbeddingService, requestsPerSecond float64, burst int) *Embedder {
	if burst < 1 {
		burst = 1
	}
	return &Embedder{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Embed waits for a token, then embeds text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return e.inner.Embed(ctx, text)
}

// EmbedBatch waits for a token, then embeds texts.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return e.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the inner embedder's vector size.
func (e *Embedder) Dimensions() int { return e.inner.Dimensions() }

// ModelName returns the inner embedder's model.
func (e *Embedder) ModelName() string { return e.inner.ModelName() }

// Ping checks the inner embedder without consuming a token.
func (e *Embedder) Ping(ctx context.Context) error { return e.inner.Ping(ctx) }

// Close closes the inner embedder.
func (e *Embedder) Close() error { return e.inner.Close() }
