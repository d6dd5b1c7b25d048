package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storemem "github.com/inkwell-dms/inkwell/internal/adapters/driven/storage/memory"
	"github.com/inkwell-dms/inkwell/internal/core/domain"
)

func TestDocumentManager_GetContent(t *testing.T) {
	ctx := context.Background()
	docs := storemem.NewDocumentStore()
	mgr := NewDocumentManager(docs, nil)

	require.NoError(t, docs.Upsert(ctx, managedDoc("doc-a", "local")))
	require.NoError(t, docs.SavePages(ctx, "doc-a", []domain.Page{
		{DocumentID: "doc-a", Number: 1, Content: "first page"},
		{DocumentID: "doc-a", Number: 2, Content: "second page"},
	}))

	content, err := mgr.GetContent(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, "first page\n\nsecond page", content)
}

func TestDocumentManager_GetContentUnknownID(t *testing.T) {
	mgr := NewDocumentManager(storemem.NewDocumentStore(), nil)
	_, err := mgr.GetContent(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentManager_DeleteRemovesRecordAndIndexEntry(t *testing.T) {
	ctx := context.Background()
	docs := storemem.NewDocumentStore()
	index := newExecMockIndex()
	mgr := NewDocumentManager(docs, index)

	require.NoError(t, docs.Upsert(ctx, managedDoc("doc-a", "local")))

	require.NoError(t, mgr.Delete(ctx, "doc-a"))

	_, err := docs.Get(ctx, "doc-a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, index.deleted, "doc-a")
}

func TestDocumentManager_DeleteUnknownID(t *testing.T) {
	mgr := NewDocumentManager(storemem.NewDocumentStore(), newExecMockIndex())
	err := mgr.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
