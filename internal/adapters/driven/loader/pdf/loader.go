// Package pdf loads PDF files into one document per page.
package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// PageText extracts the plain text of every page. Index i holds page i+1.
type PageText func(path string) ([]string, error)

// Loader reads PDF files page by page.
type Loader struct {
	extract PageText
}

// New creates a PDF loader backed by ledongthuc/pdf.
func New() *Loader {
	return &Loader{extract: readPages}
}

// NewWithExtractor creates a loader with a custom page extractor.
func NewWithExtractor(extract PageText) *Loader {
	return &Loader{extract: extract}
}

// SupportedExtensions returns the extensions this loader handles.
func (l *Loader) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Load returns one Document per page that has text. Pages without text are
// skipped but keep their numbering. A file with no text at all fails with
// domain.ErrNoContent.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Document, error) {
	pages, err := l.extract(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", path, err)
	}

	base := filepath.Base(path)
	title := extractTitle(path)

	docs := make([]domain.Document, 0, len(pages))
	for i, text := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			logger.Debug("pdf: page %d of %s has no text", i+1, base)
			continue
		}
		page := i + 1
		docs = append(docs, domain.Document{
			ID:      fmt.Sprintf("%s#%d", base, page),
			URI:     path,
			Title:   title,
			Page:    page,
			Content: text,
			Metadata: map[string]any{
				"source":      path,
				"page":        page,
				"total_pages": len(pages),
				"format":      "pdf",
			},
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s has no extractable text", domain.ErrNoContent, path)
	}
	return docs, nil
}

// readPages opens the file and extracts the text of each page in order.
func readPages(path string) (pages []string, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// The parser panics on some malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	fonts := make(map[string]*pdf.Font)
	total := r.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// extractTitle derives a human-readable title from the file name.
func extractTitle(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
