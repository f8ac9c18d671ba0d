// Package sqlite persists vector index snapshots in a single SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Format
//
// The index lives at <index dir>/index.db. The meta table records a format
// tag, a format version, the vector dimensions, the embedding model, the chunk
// count and the build time. The chunks table stores one row per chunk in
// insertion order, with the vector encoded as little-endian IEEE 754 float32s.
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Atomic Replacement
//
// Save writes a complete database to a temporary file in the same directory
// and renames it over index.db, so readers see either the old index or the
// new one and never a partial write.
package sqlite
