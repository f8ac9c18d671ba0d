package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/postprocessors/trim"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("trim", buildTrim)
}

// NewDefaultPipeline builds the chunking pipeline described by settings:
// the chunker, followed by the trim processor when blank chunks are dropped.
func NewDefaultPipeline(settings domain.Settings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	chunk, err := r.Build("chunker", map[string]any{
		"chunk_size": settings.ChunkSize,
		"overlap":    settings.Overlap,
	})
	if err != nil {
		return nil, err
	}

	pipeline := NewPipeline(chunk)
	if settings.TrimBlankChunks {
		t, err := r.Build("trim", nil)
		if err != nil {
			return nil, err
		}
		pipeline.Add(t)
	}
	return pipeline, nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 500)
//   - overlap (int): Overlapping characters between chunks (default: 100)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	p, err := chunker.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	return p, nil
}

func buildTrim(map[string]any) (driven.PostProcessor, error) {
	return trim.New(), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
