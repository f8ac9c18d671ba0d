// Package markdown loads Markdown files as a single plain-text document.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/docqa/internal/adapters/driven/loader/plaintext"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

var (
	codeBlockRe    = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe   = regexp.MustCompile("`([^`]+)`")
	imageRe        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkRe         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingRe      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteRe   = regexp.MustCompile(`(?m)^>\s*`)
	ruleRe         = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkerRe   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedListRe = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	emphasisRe     = regexp.MustCompile(`(\*\*|__|\*)`)
	blankLinesRe   = regexp.MustCompile(`\n{3,}`)
)

// Loader handles Markdown documents.
type Loader struct{}

// New creates a new Markdown loader.
func New() *Loader {
	return &Loader{}
}

// SupportedExtensions returns the extensions this loader handles.
func (l *Loader) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Load reads the file and strips Markdown syntax. Code blocks are dropped;
// inline code keeps its text.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	raw := string(data)
	content := Strip(raw)
	if content == "" {
		return nil, fmt.Errorf("%w: %s has no text", domain.ErrNoContent, path)
	}

	return []domain.Document{{
		ID:      filepath.Base(path),
		URI:     path,
		Title:   extractTitle(raw, path),
		Content: content,
		Metadata: map[string]any{
			"source": path,
			"format": "markdown",
		},
	}}, nil
}

// extractTitle returns the first H1 heading or falls back to the file name.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return plaintext.ExtractTitle(path)
}

// Strip removes common Markdown formatting.
func Strip(content string) string {
	content = codeBlockRe.ReplaceAllString(content, "")
	content = inlineCodeRe.ReplaceAllString(content, "$1")
	content = imageRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = headingRe.ReplaceAllString(content, "")
	content = blockquoteRe.ReplaceAllString(content, "")
	content = ruleRe.ReplaceAllString(content, "")
	content = listMarkerRe.ReplaceAllString(content, "")
	content = numberedListRe.ReplaceAllString(content, "")
	content = emphasisRe.ReplaceAllString(content, "")
	content = blankLinesRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
