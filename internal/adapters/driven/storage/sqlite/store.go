package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Verify interface compliance.
var _ driven.IndexStore = (*IndexStore)(nil)

const (
	// IndexFileName is the database file inside the index directory.
	IndexFileName = "index.db"

	// FormatTag identifies docqa index files.
	FormatTag = "docqa-index"

	// FormatVersion is the current on-disk format version.
	FormatVersion = 1
)

// Keys of the meta table.
const (
	metaFormatTag      = "format_tag"
	metaFormatVersion  = "format_version"
	metaDimensions     = "dimensions"
	metaEmbeddingModel = "embedding_model"
	metaChunkCount     = "chunk_count"
	metaCreatedAt      = "created_at"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// DefaultWatchDebounce coalesces the burst of events produced by one replacement.
const DefaultWatchDebounce = 250 * time.Millisecond

// IndexStore persists index snapshots to <dir>/index.db.
type IndexStore struct {
	dir      string
	path     string
	debounce time.Duration
}

// Option configures an IndexStore.
type Option func(*IndexStore)

// WithWatchDebounce sets how long Watch waits for events to settle.
func WithWatchDebounce(d time.Duration) Option {
	return func(s *IndexStore) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// NewIndexStore creates a store for the index directory.
// The directory is created on first Save.
func NewIndexStore(dir string, opts ...Option) (*IndexStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: index_storage_path is required", domain.ErrInvalidConfiguration)
	}

	s := &IndexStore{
		dir:      dir,
		path:     filepath.Join(dir, IndexFileName),
		debounce: DefaultWatchDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the index file location.
func (s *IndexStore) Path() string {
	return s.path
}

// Save writes the snapshot to a temporary database and renames it into place.
func (s *IndexStore) Save(ctx context.Context, snapshot *driven.IndexSnapshot) (err error) {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot is nil", domain.ErrInvalidArgument)
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".index-*.db.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary index: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("creating temporary index: %w", err)
	}

	defer func() {
		if err != nil {
			os.Remove(tmpPath)
			os.Remove(tmpPath + "-journal")
		}
	}()

	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		return fmt.Errorf("opening temporary index: %w", err)
	}

	if err := migrate(ctx, db, migrations.FS); err != nil {
		db.Close()
		return fmt.Errorf("running migrations: %w", err)
	}

	if err := writeSnapshot(ctx, db, snapshot); err != nil {
		db.Close()
		return err
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("closing temporary index: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}

	logger.Debug("saved %d chunks to %s", len(snapshot.Entries), s.path)
	return nil
}

// Load reads the persisted snapshot.
func (s *IndexStore) Load(ctx context.Context) (*driven.IndexSnapshot, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	info, err := readInfo(ctx, db)
	if err != nil {
		return nil, err
	}

	entries, err := readEntries(ctx, db, info.Dimensions)
	if err != nil {
		return nil, err
	}

	if len(entries) != info.ChunkCount {
		return nil, fmt.Errorf("%w: meta records %d chunks, found %d", domain.ErrIndexFormat, info.ChunkCount, len(entries))
	}

	return &driven.IndexSnapshot{Info: *info, Entries: entries}, nil
}

// Info reads only the index metadata.
func (s *IndexStore) Info(ctx context.Context) (*domain.IndexInfo, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return readInfo(ctx, db)
}

func (s *IndexStore) open() (*sql.DB, error) {
	st, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("checking index: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrIndexFormat, s.path)
	}

	db, err := openReadOnly(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", domain.ErrIndexFormat, s.path, err)
	}
	return db, nil
}

// openReadOnly opens an existing database without write access. A missing
// file is an error rather than a new empty database.
func openReadOnly(path string) (*sql.DB, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dsn := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}
	return sql.Open("sqlite", dsn.String())
}

// migrate applies the embedded up migrations newer than the recorded version.
func migrate(ctx context.Context, db *sql.DB, fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_index.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func writeSnapshot(ctx context.Context, db *sql.DB, snapshot *driven.IndexSnapshot) error {
	dims := snapshot.Info.Dimensions
	for n, e := range snapshot.Entries {
		if len(e.Vector) != dims {
			return fmt.Errorf("%w: entry %d has %d dimensions, index declares %d",
				domain.ErrDimensionMismatch, n, len(e.Vector), dims)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := snapshot.Info.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	meta := map[string]string{
		metaFormatTag:      FormatTag,
		metaFormatVersion:  strconv.Itoa(FormatVersion),
		metaDimensions:     strconv.Itoa(dims),
		metaEmbeddingModel: snapshot.Info.EmbeddingModel,
		metaChunkCount:     strconv.Itoa(len(snapshot.Entries)),
		metaCreatedAt:      createdAt.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("writing meta %s: %w", k, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (seq, id, document_id, content, position, page, char_offset, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for n, e := range snapshot.Entries {
		metadata, err := json.Marshal(e.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for chunk %s: %w", e.Chunk.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			n, e.Chunk.ID, e.Chunk.DocumentID, e.Chunk.Content, e.Chunk.Position,
			e.Chunk.Page, e.Chunk.Offset, string(metadata), float32SliceToBytes(e.Vector),
		)
		if err != nil {
			return fmt.Errorf("writing chunk %s: %w", e.Chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

func readInfo(ctx context.Context, db *sql.DB) (*domain.IndexInfo, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("%w: reading meta: %w", domain.ErrIndexFormat, err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("%w: reading meta: %w", domain.ErrIndexFormat, err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading meta: %w", domain.ErrIndexFormat, err)
	}

	if tag := meta[metaFormatTag]; tag != FormatTag {
		return nil, fmt.Errorf("%w: unexpected format tag %q", domain.ErrIndexFormat, tag)
	}

	version, err := metaInt(meta, metaFormatVersion)
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d (want %d)", domain.ErrIndexFormat, version, FormatVersion)
	}

	dims, err := metaInt(meta, metaDimensions)
	if err != nil {
		return nil, err
	}
	count, err := metaInt(meta, metaChunkCount)
	if err != nil {
		return nil, err
	}

	createdAt, err := time.Parse(time.RFC3339Nano, meta[metaCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("%w: bad %s: %w", domain.ErrIndexFormat, metaCreatedAt, err)
	}

	return &domain.IndexInfo{
		FormatVersion:  version,
		Dimensions:     dims,
		EmbeddingModel: meta[metaEmbeddingModel],
		ChunkCount:     count,
		CreatedAt:      createdAt,
	}, nil
}

func metaInt(meta map[string]string, key string) (int, error) {
	v, ok := meta[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", domain.ErrIndexFormat, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad %s %q", domain.ErrIndexFormat, key, v)
	}
	return n, nil
}

func readEntries(ctx context.Context, db *sql.DB, dims int) ([]driven.IndexEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id, content, position, page, char_offset, metadata, embedding
		FROM chunks ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: reading chunks: %w", domain.ErrIndexFormat, err)
	}
	defer rows.Close()

	var entries []driven.IndexEntry
	for rows.Next() {
		var (
			c        domain.Chunk
			metadata sql.NullString
			blob     []byte
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Content, &c.Position, &c.Page, &c.Offset, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("%w: reading chunk: %w", domain.ErrIndexFormat, err)
		}

		if metadata.Valid && metadata.String != "" && metadata.String != jsonNull {
			if c.Metadata, err = decodeMetadata(metadata.String); err != nil {
				return nil, fmt.Errorf("%w: chunk %s metadata: %w", domain.ErrIndexFormat, c.ID, err)
			}
		}

		vec, err := bytesToFloat32Slice(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %w", domain.ErrIndexFormat, c.ID, err)
		}
		if len(vec) != dims {
			return nil, fmt.Errorf("%w: chunk %s has %d dimensions, index declares %d",
				domain.ErrIndexFormat, c.ID, len(vec), dims)
		}

		entries = append(entries, driven.IndexEntry{Chunk: c, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading chunks: %w", domain.ErrIndexFormat, err)
	}

	return entries, nil
}

// decodeMetadata parses chunk metadata. Whole numbers come back as int and
// other numbers as float64.
func decodeMetadata(data string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	for k, v := range m {
		m[k] = restoreNumbers(v)
	}
	return m, nil
}

func restoreNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, x := range t {
			t[k] = restoreNumbers(x)
		}
	case []any:
		for i, x := range t {
			t[i] = restoreNumbers(x)
		}
	}
	return v
}

// float32SliceToBytes encodes a vector as little-endian IEEE 754 float32s.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice decodes a blob written by float32SliceToBytes.
func bytesToFloat32Slice(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(data))
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}
