package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Verify interface compliance.
var _ driven.IndexWatcher = (*IndexStore)(nil)

// Watch watches the index directory and emits once per settled replacement of
// index.db. The returned channel has a buffer of one; bursts collapse into a
// single notification.
func (s *IndexStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	// The file itself is replaced by rename, so watch its directory.
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", s.dir, err)
	}

	out := make(chan struct{}, 1)
	go s.watchLoop(ctx, w, out)
	return out, nil
}

func (s *IndexStore) watchLoop(ctx context.Context, w *fsnotify.Watcher, out chan<- struct{}) {
	defer close(out)
	defer w.Close()

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if s.handleFsEvent(event) {
				settle = time.After(s.debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("index watcher: %v", err)
		case <-settle:
			settle = nil
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}

// handleFsEvent reports whether the event replaced or rewrote index.db.
func (s *IndexStore) handleFsEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(s.path) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}
