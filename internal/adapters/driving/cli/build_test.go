package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestBuildCmd_DefaultSource(t *testing.T) {
	ts := setupTestServices(t)

	out, err := runCommand(t, "", "build")
	require.NoError(t, err)

	require.Equal(t, []string{domain.DefaultSettings().SourceDocumentPath}, ts.indexer.built)
	assert.Contains(t, out, "📄 Loaded 2 pages")
	assert.Contains(t, out, "✂️  Split into 4 chunks")
	assert.Contains(t, out, "🔗 Embedded 4 chunks")
	assert.Contains(t, out, "💾 Saved index")
	assert.Contains(t, out, "✅ Index saved to: /tmp/index")
	assert.Contains(t, out, "2 pages, 4 chunks, 512 dimensions (hashing-512) in 1.5s")
}

func TestBuildCmd_ExplicitSource(t *testing.T) {
	ts := setupTestServices(t)

	_, err := runCommand(t, "", "build", "handbook.pdf")
	require.NoError(t, err)

	assert.Equal(t, []string{"handbook.pdf"}, ts.indexer.built)
}

func TestBuildCmd_Error(t *testing.T) {
	ts := setupTestServices(t)
	ts.indexer.err = domain.ErrNoContent

	out, err := runCommand(t, "", "build")
	require.ErrorIs(t, err, domain.ErrNoContent)
	assert.NotContains(t, out, "✅")
}

func TestBuildCmd_InvalidSettings(t *testing.T) {
	ts := setupTestServices(t)
	require.Error(t, settingsService.Set("overlap", "900"))

	_, err := runCommand(t, "", "build")
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	assert.Empty(t, ts.indexer.built)
}
