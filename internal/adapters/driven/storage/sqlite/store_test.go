package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// setupTestStore creates an index store in a temporary directory.
func setupTestStore(t *testing.T, opts ...Option) *IndexStore {
	t.Helper()

	store, err := NewIndexStore(t.TempDir(), opts...)
	require.NoError(t, err)
	return store
}

func testSnapshot() *driven.IndexSnapshot {
	return &driven.IndexSnapshot{
		Info: domain.IndexInfo{
			Dimensions:     3,
			EmbeddingModel: "all-minilm",
			ChunkCount:     2,
			CreatedAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Entries: []driven.IndexEntry{
			{
				Chunk: domain.Chunk{
					ID: "c1", DocumentID: "doc#1", Content: "Employees must clock in by 9am.",
					Position: 0, Page: 1, Offset: 0,
					Metadata: map[string]any{"page": 1, "score": 0.5},
				},
				Vector: []float32{0.1, -0.25, 3.5},
			},
			{
				Chunk: domain.Chunk{
					ID: "c2", DocumentID: "doc#2", Content: "Filler about the cafeteria.",
					Position: 1, Page: 2, Offset: 400,
				},
				Vector: []float32{1, 0, 0},
			},
		},
	}
}

func TestNewIndexStore_RequiresDir(t *testing.T) {
	_, err := NewIndexStore("  ")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestIndexStore_SaveLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot()))
	assert.FileExists(t, store.Path())
	assert.Equal(t, IndexFileName, filepath.Base(store.Path()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, loaded.Info.FormatVersion)
	assert.Equal(t, 3, loaded.Info.Dimensions)
	assert.Equal(t, "all-minilm", loaded.Info.EmbeddingModel)
	assert.Equal(t, 2, loaded.Info.ChunkCount)
	assert.True(t, loaded.Info.CreatedAt.Equal(testSnapshot().Info.CreatedAt))

	require.Len(t, loaded.Entries, 2)
	want := testSnapshot().Entries
	for i := range want {
		assert.Equal(t, want[i].Chunk.ID, loaded.Entries[i].Chunk.ID)
		assert.Equal(t, want[i].Chunk.Content, loaded.Entries[i].Chunk.Content)
		assert.Equal(t, want[i].Chunk.Page, loaded.Entries[i].Chunk.Page)
		assert.Equal(t, want[i].Chunk.Offset, loaded.Entries[i].Chunk.Offset)
		assert.Equal(t, want[i].Vector, loaded.Entries[i].Vector)
	}
	assert.Equal(t, map[string]any{"page": 1, "score": 0.5}, loaded.Entries[0].Chunk.Metadata)
	assert.Nil(t, loaded.Entries[1].Chunk.Metadata)
}

func TestIndexStore_Info(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Save(context.Background(), testSnapshot()))

	info, err := store.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, info.ChunkCount)
	assert.Equal(t, 3, info.Dimensions)
}

func TestIndexStore_SaveReplacesAndLeavesNoTempFiles(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot()))

	smaller := testSnapshot()
	smaller.Entries = smaller.Entries[:1]
	require.NoError(t, store.Save(ctx, smaller))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Entries, 1)

	files, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, IndexFileName, files[0].Name())
}

func TestIndexStore_SaveFailureKeepsPreviousIndex(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testSnapshot()))

	bad := testSnapshot()
	bad.Entries[1].Vector = []float32{1}
	err := store.Save(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Entries, 2)
}

func TestIndexStore_EmptyIndex(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	snap := &driven.IndexSnapshot{Info: domain.IndexInfo{Dimensions: 384, EmbeddingModel: "all-minilm"}}
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Entries)
	assert.Equal(t, 384, loaded.Info.Dimensions)
}

func TestIndexStore_Load_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)

	_, err = store.Info(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestIndexStore_Load_NotFoundCreatesNothing(t *testing.T) {
	store := setupTestStore(t)
	dir := filepath.Dir(store.Path())

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrIndexNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenReadOnly(t *testing.T) {
	t.Run("missing file is not created", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gone.db")

		db, err := openReadOnly(path)
		require.NoError(t, err)
		defer db.Close()

		assert.Error(t, db.Ping())
		assert.NoFileExists(t, path)
	})

	t.Run("rejects writes", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.Save(context.Background(), testSnapshot()))

		db, err := openReadOnly(store.Path())
		require.NoError(t, err)
		defer db.Close()

		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n))
		assert.Equal(t, 2, n)

		_, err = db.Exec("DELETE FROM chunks")
		assert.Error(t, err)
	})
}

func TestDecodeMetadata(t *testing.T) {
	m, err := decodeMetadata(`{"page":3,"ratio":0.25,"big":12345678901,"nested":{"n":2},"list":[1,"a"],"name":"x"}`)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"page":   3,
		"ratio":  0.25,
		"big":    12345678901,
		"nested": map[string]any{"n": 2},
		"list":   []any{1, "a"},
		"name":   "x",
	}, m)
}

func TestIndexStore_Load_NotADatabase(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("this is definitely not sqlite, just some bytes"), 0600))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexFormat)
}

// corrupt saves a valid index and then applies stmt to it.
func corrupt(t *testing.T, stmt string, args ...any) *IndexStore {
	t.Helper()
	store := setupTestStore(t)
	require.NoError(t, store.Save(context.Background(), testSnapshot()))

	db, err := sql.Open("sqlite", store.Path())
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(stmt, args...)
	require.NoError(t, err)
	return store
}

func TestIndexStore_Load_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		args []any
	}{
		{"wrong tag", "UPDATE meta SET value = ? WHERE key = ?", []any{"faiss", metaFormatTag}},
		{"future version", "UPDATE meta SET value = ? WHERE key = ?", []any{"99", metaFormatVersion}},
		{"missing dimensions", "DELETE FROM meta WHERE key = ?", []any{metaDimensions}},
		{"bad created_at", "UPDATE meta SET value = ? WHERE key = ?", []any{"yesterday", metaCreatedAt}},
		{"count mismatch", "UPDATE meta SET value = ? WHERE key = ?", []any{"7", metaChunkCount}},
		{"truncated blob", "UPDATE chunks SET embedding = ? WHERE id = ?", []any{[]byte{1, 2, 3}, "c1"}},
		{"short vector", "UPDATE chunks SET embedding = ? WHERE id = ?", []any{float32SliceToBytes([]float32{1}), "c2"}},
		{"bad metadata", "UPDATE chunks SET metadata = ? WHERE id = ?", []any{"{not json", "c1"}},
		{"missing chunks table", "DROP TABLE chunks", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := corrupt(t, tt.stmt, tt.args...)

			snap, err := store.Load(context.Background())
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, domain.ErrIndexFormat)
		})
	}
}

func TestMigrate_RecordsVersion(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Save(context.Background(), testSnapshot()))

	db, err := sql.Open("sqlite", store.Path())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, migrate(context.Background(), db, migrations.FS))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count, "re-running migrations is a no-op")
}

func TestFloat32Encoding(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4028235e38}
	out, err := bytesToFloat32Slice(float32SliceToBytes(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = bytesToFloat32Slice([]byte{1, 2})
	assert.Error(t, err)
}

func TestHandleFsEvent(t *testing.T) {
	store := setupTestStore(t)
	dir := filepath.Dir(store.Path())

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"rename into place", store.Path(), fsnotify.Create, true},
		{"write", store.Path(), fsnotify.Write, true},
		{"rename away", store.Path(), fsnotify.Rename, true},
		{"chmod", store.Path(), fsnotify.Chmod, false},
		{"temp file", filepath.Join(dir, ".index-123.db.tmp"), fsnotify.Create, false},
		{"other file", filepath.Join(dir, "notes.txt"), fsnotify.Write, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.handleFsEvent(fsnotify.Event{Name: tt.path, Op: tt.op}))
		})
	}
}

func TestIndexStore_Watch(t *testing.T) {
	store := setupTestStore(t, WithWatchDebounce(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Watch(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		store.Save(context.Background(), testSnapshot())
	}()

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for index replacement")
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}
