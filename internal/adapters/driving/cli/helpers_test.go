package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
)

// stubRetriever returns fixed passages for every query.
type stubRetriever struct {
	chunks []domain.ScoredChunk
	err    error
}

func (r *stubRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	scored, err := r.RetrieveScored(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Chunk, len(scored))
	for i, sc := range scored {
		out[i] = sc.Chunk
	}
	return out, nil
}

func (r *stubRetriever) RetrieveScored(_ context.Context, _ string, k int) ([]domain.ScoredChunk, error) {
	if r.err != nil {
		return nil, r.err
	}
	if k < len(r.chunks) {
		return r.chunks[:k], nil
	}
	return r.chunks, nil
}

// stubLLM answers every prompt with the same text.
type stubLLM struct {
	answer  string
	prompts []string
}

func (m *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.answer, nil
}

func (m *stubLLM) ModelName() string { return "stub" }

func (m *stubLLM) Ping(_ context.Context) error { return nil }

func (m *stubLLM) Close() error { return nil }

// stubIndexer records builds and serves fixed metadata.
type stubIndexer struct {
	built  []string
	info   *domain.IndexInfo
	err    error
	report *driving.BuildReport
}

func (s *stubIndexer) Build(_ context.Context, sourcePath string, progress driving.BuildProgress) (*driving.BuildReport, error) {
	s.built = append(s.built, sourcePath)
	if s.err != nil {
		return nil, s.err
	}
	progress(driving.StageLoad, "Loaded 2 pages")
	progress(driving.StageSplit, "Split into 4 chunks")
	progress(driving.StageEmbed, "Embedded 4 chunks")
	progress(driving.StageSave, "Saved index")
	return s.report, nil
}

func (s *stubIndexer) Info(_ context.Context) (*domain.IndexInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

type testServices struct {
	retriever *stubRetriever
	llm       *stubLLM
	indexer   *stubIndexer
}

// setupTestServices replaces the command services with in-memory versions
// and restores the originals when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	origSettings, origIndex := settingsService, indexService
	origAssistant, origRetriever := assistantService, retrieverService

	prompts, err := file.NewPromptStore(t.TempDir())
	require.NoError(t, err)

	ts := &testServices{
		retriever: &stubRetriever{chunks: []domain.ScoredChunk{
			{Chunk: domain.Chunk{Content: "Employees must clock in by 9am.", Page: 1, Position: 0}, Score: 0.91},
			{Chunk: domain.Chunk{Content: "Annual leave is 25 days.", Page: 2, Position: 1}, Score: 0.42},
		}},
		llm: &stubLLM{answer: "By 9am."},
		indexer: &stubIndexer{
			info: &domain.IndexInfo{
				FormatVersion:  1,
				Dimensions:     512,
				EmbeddingModel: "hashing-512",
				ChunkCount:     4,
				CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			},
			report: &driving.BuildReport{
				Source:    "handbook.pdf",
				Pages:     2,
				Chunks:    4,
				IndexPath: "/tmp/index",
				Info:      domain.IndexInfo{Dimensions: 512, EmbeddingModel: "hashing-512"},
				Duration:  1500 * time.Millisecond,
			},
		},
	}

	settingsService = services.NewSettingsService(memory.NewConfigStore(), nil)
	indexService = ts.indexer
	retrieverService = ts.retriever
	assistantService = services.NewAssistantService(ts.retriever, ts.llm, prompts, services.AssistantConfig{
		Name: "Handbook Bot",
	})

	t.Cleanup(func() {
		settingsService, indexService = origSettings, origIndex
		assistantService, retrieverService = origAssistant, origRetriever
		askShowSources, chatShowSources, chatWatch, indexJSON = false, false, false, false
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return ts
}

// runCommand executes the root command with args and returns what it wrote
// to stdout. A successful command must leave stderr untouched.
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err == nil {
		assert.Empty(t, stderr.String(), "unexpected stderr output")
	}
	return stdout.String(), err
}

// captureStdout swaps os.Stdout for a pipe while fn runs and returns what was
// written to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}
