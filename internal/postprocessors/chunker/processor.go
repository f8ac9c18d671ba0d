// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// Metadata keys set on every chunk.
const (
	MetaPage   = "page"
	MetaOffset = "offset"
)

// Processor splits document content into fixed-size chunks.
// Sizes count runes, not bytes, so multi-byte text is never split mid-character.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrInvalidConfiguration unless 0 <= overlap < chunk_size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk_size must be positive, got %d", domain.ErrInvalidConfiguration, p.chunkSize)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < chunk_size, got overlap=%d chunk_size=%d",
			domain.ErrInvalidConfiguration, p.overlap, p.chunkSize)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	content := []rune(doc.Content)
	contentLen := len(content)
	stride := p.chunkSize - p.overlap

	estimatedChunks := (contentLen / stride) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	position := 0
	for start := 0; start < contentLen; start += stride {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+p.chunkSize, contentLen)

		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(doc.ID, doc.Page, start),
			DocumentID: doc.ID,
			Content:    string(content[start:end]),
			Position:   position,
			Page:       doc.Page,
			Offset:     start,
			Metadata: map[string]any{
				MetaPage:   doc.Page,
				MetaOffset: start,
			},
		})
		position++

		// The last chunk reached the end; another window would only repeat overlap.
		if end == contentLen {
			break
		}
	}

	return chunks, nil
}

// ChunkID derives a stable identifier from a chunk's source location, so
// rebuilding the same document yields the same IDs.
func ChunkID(documentID string, page, offset int) string {
	name := fmt.Sprintf("%s#page=%d&offset=%d", documentID, page, offset)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
