package cli

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/loader"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// loadSettings returns the validated settings.
func loadSettings() (*domain.Settings, error) {
	if settingsService == nil {
		return nil, errNoSettings
	}
	return settingsService.Get()
}

func newIndexParts(settings *domain.Settings) (*sqlite.IndexStore, *memory.Factory, error) {
	store, err := sqlite.NewIndexStore(settings.IndexStoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open index store: %w", err)
	}
	factory := memory.NewFactory(memory.WithBatchSize(settings.Embedding.BatchSize))
	return store, factory, nil
}

// ensureIndexer builds the index service. The embedder is only connected
// when withEmbedder is set; Info works without it.
func ensureIndexer(withEmbedder bool) error {
	if indexService != nil {
		return nil
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, factory, err := newIndexParts(settings)
	if err != nil {
		return err
	}
	pipeline, err := postprocessors.NewDefaultPipeline(*settings)
	if err != nil {
		return err
	}

	var embedder driven.EmbeddingService
	if withEmbedder {
		svc, _, err := ai.CreateAndValidateEmbeddingService(settings)
		if err != nil {
			return err
		}
		onClose(func() { _ = svc.Close() })
		embedder = svc
	}

	indexService = services.NewIndexService(loader.NewDefaultRegistry(), pipeline, factory, store, embedder)
	return nil
}

// ensureQuery builds the retriever and assistant over the persisted index.
// With watch set, the index is reloaded whenever it is rebuilt and prompt
// edits apply on the next answer, until ctx ends.
func ensureQuery(ctx context.Context, watch bool) error {
	if assistantService != nil && retrieverService != nil {
		return nil
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	result, err := ai.Init(settings, true)
	if err != nil {
		return err
	}
	onClose(result.Close)

	store, factory, err := newIndexParts(settings)
	if err != nil {
		return err
	}
	retriever, err := services.OpenRetriever(ctx, store, factory, result.EmbeddingService)
	if err != nil {
		return fmt.Errorf("%w (run 'docqa build' first)", err)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return err
	}

	if watch {
		go func() {
			if err := retriever.WatchAndReload(ctx, store, store, factory); err != nil {
				logger.Warn("index watcher stopped: %v", err)
			}
		}()
		go func() {
			if err := prompts.Watch(ctx); err != nil {
				logger.Warn("prompt watcher stopped: %v", err)
			}
		}()
	}

	retrieverService = retriever
	assistantService = services.NewAssistantService(
		retriever, result.LLMService, prompts, services.AssistantConfigFromSettings(settings))
	return nil
}
