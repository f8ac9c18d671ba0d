package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentLoader reads a source file into documents, one per page where the
// format has pages.
type DocumentLoader interface {
	// Load reads the file at path.
	Load(ctx context.Context, path string) ([]domain.Document, error)

	// SupportedExtensions returns lowercase file extensions including the dot.
	SupportedExtensions() []string
}
