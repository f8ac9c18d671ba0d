package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDocument_Fields tests Document structure fields
func TestDocument_Fields(t *testing.T) {
	doc := Document{
		ID:       "doc-123",
		URI:      "/path/to/handbook.pdf",
		Title:    "handbook.pdf",
		Page:     2,
		Content:  "Annual leave is 25 days.",
		Metadata: map[string]any{"pages": 42},
	}

	assert.Equal(t, "doc-123", doc.ID)
	assert.Equal(t, "/path/to/handbook.pdf", doc.URI)
	assert.Equal(t, 2, doc.Page)
	assert.Equal(t, 42, doc.Metadata["pages"])
}

// TestChunk_Fields tests Chunk structure fields
func TestChunk_Fields(t *testing.T) {
	chunk := Chunk{
		ID:         "chunk-1",
		DocumentID: "doc-123",
		Content:    "leave is 25",
		Position:   7,
		Page:       2,
		Offset:     6,
	}

	assert.Equal(t, "doc-123", chunk.DocumentID)
	assert.Equal(t, 7, chunk.Position)
	assert.Equal(t, 6, chunk.Offset)
	assert.Nil(t, chunk.Metadata)
}

func TestScoredChunk_Fields(t *testing.T) {
	sc := ScoredChunk{Chunk: Chunk{ID: "c"}, Score: -0.25}

	assert.Equal(t, "c", sc.Chunk.ID)
	assert.InDelta(t, -0.25, sc.Score, 1e-9)
}

func TestIndexInfo_JSON(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	info := IndexInfo{
		FormatVersion:  1,
		Dimensions:     384,
		EmbeddingModel: "all-minilm",
		ChunkCount:     12,
		CreatedAt:      created,
	}

	data, err := json.Marshal(info)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "all-minilm", fields["embedding_model"])
	assert.InDelta(t, 384, fields["dimensions"], 0)
	assert.InDelta(t, 12, fields["chunk_count"], 0)
	assert.Equal(t, "2026-03-01T12:00:00Z", fields["created_at"])
}
