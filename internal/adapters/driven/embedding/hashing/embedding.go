// Package hashing provides an offline embedding service based on feature
// hashing of word tokens. It needs no model download or network access and
// is deterministic, which makes it suitable for tests and air-gapped use.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the default vector size.
const DefaultDimensions = 512

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// EmbeddingService maps each token to a signed bucket and L2-normalises the
// resulting term-frequency vector.
type EmbeddingService struct {
	dimensions int
	stopwords  map[string]struct{}
}

// NewEmbeddingService creates a hashing embedder. Non-positive dimensions use the default.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		dimensions: dimensions,
		stopwords:  defaultStopwords(),
	}
}

// ModelNameFor returns the model identifier for a dimension count.
func ModelNameFor(dimensions int) string {
	return fmt.Sprintf("hashing-%d", dimensions)
}

// DimensionsFor parses a model identifier produced by ModelNameFor.
// An empty model yields DefaultDimensions.
func DimensionsFor(model string) (int, error) {
	if model == "" {
		return DefaultDimensions, nil
	}
	rest, ok := strings.CutPrefix(model, "hashing-")
	if !ok {
		return 0, fmt.Errorf("hashing: unknown model %q", model)
	}
	dims, err := strconv.Atoi(rest)
	if err != nil || dims <= 0 {
		return 0, fmt.Errorf("hashing: invalid dimensions in model %q", model)
	}
	return dims, nil
}

// Embed generates a vector embedding for the given text.
// Text without any indexable token yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	acc := make([]float64, s.dimensions)
	for _, tok := range s.tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()

		bucket := int(sum % uint64(s.dimensions))
		if sum>>63 == 1 {
			acc[bucket]--
		} else {
			acc[bucket]++
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, s.dimensions)
	if norm == 0 {
		return vec, nil
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return ModelNameFor(s.dimensions)
}

// Ping always succeeds; the embedder is in-process.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := s.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "so", "such", "into", "about", "can", "will", "just", "do", "does",
		"what", "which", "who", "whom", "how", "when", "where", "why", "i", "you", "we", "they", "my", "our",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
