// Package plaintext loads plain text files as a single document.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader handles plain text documents.
type Loader struct{}

// New creates a new plain text loader.
func New() *Loader {
	return &Loader{}
}

// SupportedExtensions returns the extensions this loader handles.
func (l *Loader) SupportedExtensions() []string {
	return []string{".txt", ".text"}
}

// Load reads the whole file as one document with Page 0.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidArgument, path)
	}

	content := string(data)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrNoContent, path)
	}

	return []domain.Document{{
		ID:      filepath.Base(path),
		URI:     path,
		Title:   ExtractTitle(path),
		Content: content,
		Metadata: map[string]any{
			"source": path,
			"format": "text",
		},
	}}, nil
}

// ExtractTitle extracts a human-readable title from a file path.
func ExtractTitle(path string) string {
	filename := filepath.Base(path)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))

	// Replace underscores and dashes with spaces
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
