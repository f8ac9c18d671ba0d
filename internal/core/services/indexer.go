package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.Indexer = (*IndexService)(nil)

// IndexService runs the offline build: load, split, embed and save.
type IndexService struct {
	loader   driven.DocumentLoader
	pipeline driven.PostProcessorPipeline
	factory  driven.VectorIndexFactory
	store    driven.IndexStore
	embedder driven.EmbeddingService
	now      func() time.Time
}

// NewIndexService creates a new index service.
// The embedder may be nil when only Info is needed.
func NewIndexService(
	loader driven.DocumentLoader,
	pipeline driven.PostProcessorPipeline,
	factory driven.VectorIndexFactory,
	store driven.IndexStore,
	embedder driven.EmbeddingService,
) *IndexService {
	return &IndexService{
		loader:   loader,
		pipeline: pipeline,
		factory:  factory,
		store:    store,
		embedder: embedder,
		now:      time.Now,
	}
}

// Build indexes the document at sourcePath and replaces the persisted index.
// Any failure leaves the previous index untouched.
func (s *IndexService) Build(ctx context.Context, sourcePath string, progress driving.BuildProgress) (*driving.BuildReport, error) {
	if progress == nil {
		progress = func(driving.BuildStage, string) {}
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	start := s.now()

	// 1. Load
	progress(driving.StageLoad, fmt.Sprintf("Loading %s", sourcePath))
	docs, err := s.loader.Load(ctx, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	progress(driving.StageLoad, fmt.Sprintf("Loaded %d page(s)", len(docs)))

	// 2. Split
	chunks, err := s.split(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("split: %w: %s produced no chunks", domain.ErrNoContent, filepath.Base(sourcePath))
	}
	progress(driving.StageSplit, fmt.Sprintf("Split into %d chunk(s)", len(chunks)))

	// 3. Embed
	progress(driving.StageEmbed, fmt.Sprintf("Embedding %d chunk(s) with %s", len(chunks), s.embedder.ModelName()))
	index, err := s.factory.Build(ctx, chunks, s.embedder)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	// 4. Save
	snapshot := index.Snapshot()
	progress(driving.StageSave, fmt.Sprintf("Saving index to %s", s.store.Path()))
	if err := s.store.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}

	report := &driving.BuildReport{
		Source:    sourcePath,
		Pages:     len(docs),
		Chunks:    len(chunks),
		Info:      snapshot.Info,
		IndexPath: s.store.Path(),
		Duration:  s.now().Sub(start),
	}
	logger.Info("built index: %d pages, %d chunks, %d dimensions in %s",
		report.Pages, report.Chunks, report.Info.Dimensions, report.Duration)

	return report, nil
}

// Info returns the metadata of the persisted index.
func (s *IndexService) Info(ctx context.Context) (*domain.IndexInfo, error) {
	return s.store.Info(ctx)
}

// split runs every document through the pipeline and numbers the chunks
// in source order across the whole build.
func (s *IndexService) split(ctx context.Context, docs []domain.Document) ([]domain.Chunk, error) {
	var all []domain.Chunk
	for i := range docs {
		chunks, err := s.pipeline.Process(ctx, &docs[i])
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", docs[i].ID, err)
		}
		logger.Debug("document %s (page %d): %d chunks", docs[i].ID, docs[i].Page, len(chunks))
		all = append(all, chunks...)
	}

	for i := range all {
		all[i].Position = i
	}
	return all, nil
}
