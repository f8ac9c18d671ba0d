// Package trim provides a processor that drops blank chunks.
package trim

import (
	"context"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Processor removes chunks whose content is only whitespace.
// Surviving chunks keep their content, IDs and order; positions are renumbered.
type Processor struct{}

// New creates a trim processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "trim"
}

// Process filters the incoming chunks.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	kept := chunks[:0:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		c.Position = len(kept)
		kept = append(kept, c)
	}
	return kept, nil
}
