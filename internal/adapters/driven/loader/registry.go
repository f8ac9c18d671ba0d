// Package loader dispatches source files to the loader registered for their
// extension.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/loader/markdown"
	"github.com/custodia-labs/docqa/internal/adapters/driven/loader/pdf"
	"github.com/custodia-labs/docqa/internal/adapters/driven/loader/plaintext"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.DocumentLoader = (*Registry)(nil)

// Registry selects a DocumentLoader by file extension.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]driven.DocumentLoader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]driven.DocumentLoader)}
}

// NewDefaultRegistry creates a registry with the PDF, Markdown and plain text loaders.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a loader for each of its extensions, replacing earlier ones.
func (r *Registry) Register(l driven.DocumentLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range l.SupportedExtensions() {
		r.loaders[strings.ToLower(ext)] = l
	}
}

// SupportedExtensions returns every registered extension, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load reads path with the loader registered for its extension.
func (r *Registry) Load(ctx context.Context, path string) ([]domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	l, ok := r.loaders[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no loader for %q files (supported: %s)",
			domain.ErrUnsupportedType, ext, strings.Join(r.SupportedExtensions(), ", "))
	}
	return l.Load(ctx, path)
}
