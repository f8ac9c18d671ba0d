package file

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaultFiles embed.FS

// promptNames are the templates seeded into a new prompt directory.
var promptNames = []string{driven.PromptAnswer, driven.PromptGreeting, driven.PromptFarewell}

// placeholderCounts is the number of %s verbs each template is rendered with.
var placeholderCounts = map[string]int{
	driven.PromptAnswer:   3,
	driven.PromptGreeting: 1,
	driven.PromptFarewell: 1,
}

// DefaultPrompt returns the embedded default for name.
func DefaultPrompt(name string) (string, bool) {
	data, err := defaultFiles.ReadFile(path.Join("defaults", name+".txt"))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// PromptStore serves prompt templates from user-editable files, seeding the
// directory with the embedded defaults on first use. A missing or unreadable
// file, or one whose placeholders do not match, falls back to its default.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]string
}

// NewPromptStore creates a store over dir, or ~/.docqa/prompts when dir is
// empty. Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultDir, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	s.mu.Lock()
	defer s.mu.Unlock()

	if prompt, ok := s.cache[name]; ok {
		return prompt, nil
	}

	prompt, err := s.read(name)
	if err == nil {
		if want, ok := placeholderCounts[name]; ok {
			if err = CheckTemplate(prompt, want); err != nil {
				logger.Warn("prompt %s.txt ignored, using default: %v", name, err)
			}
		}
	}
	if err != nil {
		def, ok := DefaultPrompt(name)
		if !ok {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		prompt = def
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Watch drops cached templates whenever a template file in the prompt
// directory changes. It blocks until ctx is done.
func (s *PromptStore) Watch(ctx context.Context) error {
	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		return s.seedErr
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) == ".txt" && !event.Has(fsnotify.Chmod) {
				s.Reload()
				logger.Debug("prompt %s changed, reloading", filepath.Base(event.Name))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

// CheckTemplate reports an error unless tpl has exactly want %s verbs and no
// other verbs. A literal percent sign is written %%.
func CheckTemplate(tpl string, want int) error {
	got := 0
	for i := 0; i < len(tpl); i++ {
		if tpl[i] != '%' {
			continue
		}
		if i+1 == len(tpl) {
			return errors.New("template ends with a lone %")
		}
		i++
		switch tpl[i] {
		case '%':
		case 's':
			got++
		default:
			return fmt.Errorf("unsupported verb %%%c (write %%%% for a literal percent sign)", tpl[i])
		}
	}
	if got != want {
		return fmt.Errorf("template has %d %%s placeholders, want %d", got, want)
	}
	return nil
}

func (s *PromptStore) read(name string) (string, error) {
	if s.seedErr != nil {
		return "", s.seedErr
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// seed creates the directory and writes any default file that is missing.
// Existing files are never overwritten.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := make([]string, 0, len(promptNames)+1)
	for _, name := range promptNames {
		files = append(files, name+".txt")
	}
	files = append(files, "README.md")

	for _, f := range files {
		target := filepath.Join(s.dir, f)
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaultFiles.ReadFile(path.Join("defaults", f))
		if err != nil {
			s.seedErr = err
			return
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			s.seedErr = fmt.Errorf("write default %s: %w", f, err)
			return
		}
	}
}
