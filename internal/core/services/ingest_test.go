package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/sidecar"
)

func writeLocalFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngest_ManagedFileSidecarAndRecord(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()
	ingestor := NewIngestor(f.storage, f.docs, f.parsers, f.index)

	localPath := writeLocalFile(t, "report.txt", "quarterly numbers")

	doc, err := ingestor.Ingest(ctx, localPath, []string{"finance"})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "report.txt", doc.OriginalName)
	assert.Equal(t, domain.StatusParsed, doc.Status)
	assert.Equal(t, domain.StorageModeManaged, doc.StorageMode)
	assert.Equal(t, "local", doc.StorageBackend)
	assert.Equal(t, doc.ID+".txt", doc.FilePath)
	assert.Equal(t, []string{"finance"}, doc.Tags)
	assert.Equal(t, hashBytes([]byte("quarterly numbers")), doc.ContentHash)
	assert.Equal(t, 1, doc.PageCount)

	// Managed copy, sidecar, and cached artifact all landed in storage.
	data, err := f.storage.Read(ctx, doc.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "quarterly numbers", string(data))

	scData, err := f.storage.Read(ctx, sidecar.PathFor(doc.FilePath))
	require.NoError(t, err)
	sc, err := sidecar.Decode(scData)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, sc.DocID)
	assert.Equal(t, domain.StatusParsed, sc.Status)

	exists, err := f.storage.Exists(ctx, sidecar.ArtifactPathFor(doc.FilePath))
	require.NoError(t, err)
	assert.True(t, exists)

	// Pages and index entry exist.
	pages, err := f.docs.GetPages(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, f.index.indexed, doc.ID)
}

func TestIngest_UnsupportedExtension(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()
	ingestor := NewIngestor(f.storage, f.docs, f.parsers, f.index)

	localPath := writeLocalFile(t, "photo.bin", "not text")

	doc, err := ingestor.Ingest(ctx, localPath, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotSupported, doc.Status)

	// The file is still managed even though nothing could parse it.
	exists, err := f.storage.Exists(ctx, doc.FilePath)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIngest_ParseFailureStillRecordsDocument(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()
	ingestor := NewIngestor(f.storage, f.docs, &failingParsers{}, f.index)

	localPath := writeLocalFile(t, "broken.txt", "content")

	doc, err := ingestor.Ingest(ctx, localPath, nil)
	require.Error(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, domain.StatusFailed, doc.Status)

	// The record survives with failed status so `sync --reparse` can
	// retry it later.
	stored, getErr := f.docs.Get(ctx, doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestIngest_MissingLocalFile(t *testing.T) {
	f := newExecFixture()
	ingestor := NewIngestor(f.storage, f.docs, f.parsers, f.index)

	_, err := ingestor.Ingest(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), nil)
	assert.Error(t, err)
}

func TestIngest_UniqueIDsForSameFileName(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()
	ingestor := NewIngestor(f.storage, f.docs, f.parsers, f.index)

	first, err := ingestor.Ingest(ctx, writeLocalFile(t, "notes.txt", "one"), nil)
	require.NoError(t, err)
	second, err := ingestor.Ingest(ctx, writeLocalFile(t, "notes.txt", "two"), nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	docs, err := f.docs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

// failingParsers supports everything and fails everything.
type failingParsers struct{}

func (p *failingParsers) Supports(string) bool { return true }

func (p *failingParsers) Parse(context.Context, *driven.ParseRequest) (*driven.ParseResult, error) {
	return nil, fmt.Errorf("unreadable structure")
}
