package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func fixedPages(pages ...string) PageText {
	return func(string) ([]string, error) { return pages, nil }
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".pdf"}, New().SupportedExtensions())
}

func TestLoad_OneDocumentPerPage(t *testing.T) {
	l := NewWithExtractor(fixedPages("Employees must clock in by 9am.", "Vacation requests need two weeks notice."))

	docs, err := l.Load(context.Background(), "/policies/employee_handbook.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "employee_handbook.pdf#1", docs[0].ID)
	assert.Equal(t, 1, docs[0].Page)
	assert.Equal(t, "employee handbook", docs[0].Title)
	assert.Equal(t, "Employees must clock in by 9am.", docs[0].Content)
	assert.Equal(t, 2, docs[0].Metadata["total_pages"])

	assert.Equal(t, "employee_handbook.pdf#2", docs[1].ID)
	assert.Equal(t, 2, docs[1].Page)
}

func TestLoad_SkipsBlankPagesKeepingNumbers(t *testing.T) {
	l := NewWithExtractor(fixedPages("first", "   \n", "third"))

	docs, err := l.Load(context.Background(), "doc.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 1, docs[0].Page)
	assert.Equal(t, 3, docs[1].Page)
}

func TestLoad_NoText(t *testing.T) {
	l := NewWithExtractor(fixedPages("", " "))

	_, err := l.Load(context.Background(), "scan.pdf")
	assert.ErrorIs(t, err, domain.ErrNoContent)
}

func TestLoad_ExtractorError(t *testing.T) {
	boom := errors.New("boom")
	l := NewWithExtractor(func(string) ([]string, error) { return nil, boom })

	_, err := l.Load(context.Background(), "doc.pdf")
	assert.ErrorIs(t, err, boom)
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWithExtractor(fixedPages("text")).Load(ctx, "doc.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestLoad_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a pdf"), 0o600))

	_, err := New().Load(context.Background(), path)
	assert.Error(t, err)
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "my policy doc", extractTitle("/a/b/my_policy-doc.pdf"))
}
