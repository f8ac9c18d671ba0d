package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// BuildStage names a step of the index build pipeline.
type BuildStage string

// Build stages, in order.
const (
	StageLoad  BuildStage = "load"
	StageSplit BuildStage = "split"
	StageEmbed BuildStage = "embed"
	StageSave  BuildStage = "save"
)

// BuildProgress receives human-readable progress during a build.
type BuildProgress func(stage BuildStage, message string)

// BuildReport summarises a completed build.
type BuildReport struct {
	Source    string
	Pages     int
	Chunks    int
	Info      domain.IndexInfo
	IndexPath string
	Duration  time.Duration
}

// Indexer builds and inspects the persisted index.
type Indexer interface {
	// Build loads, splits, embeds and saves the source document.
	// Nothing is persisted unless every step succeeds.
	Build(ctx context.Context, sourcePath string, progress BuildProgress) (*BuildReport, error)

	// Info returns the metadata of the persisted index.
	Info(ctx context.Context) (*domain.IndexInfo, error)
}
