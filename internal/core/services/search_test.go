package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storemem "github.com/inkwell-dms/inkwell/internal/adapters/driven/storage/memory"
	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// searchMockIndex returns canned hits and records the requested limit.
type searchMockIndex struct {
	hits      []driven.SearchHit
	lastLimit int
}

func (m *searchMockIndex) Index(context.Context, *domain.Document, string) error { return nil }
func (m *searchMockIndex) Delete(context.Context, string) error                  { return nil }
func (m *searchMockIndex) Close() error                                          { return nil }

func (m *searchMockIndex) Search(_ context.Context, _ string, limit int) ([]driven.SearchHit, error) {
	m.lastLimit = limit
	if limit < len(m.hits) {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

func TestSearcher_JoinsHitsWithRecords(t *testing.T) {
	ctx := context.Background()
	docs := storemem.NewDocumentStore()
	require.NoError(t, docs.Upsert(ctx, managedDoc("doc-a", "local")))
	require.NoError(t, docs.Upsert(ctx, managedDoc("doc-b", "local")))

	index := &searchMockIndex{hits: []driven.SearchHit{
		{DocID: "doc-b", Score: 2.5, Highlights: []string{"match <b>here</b>"}},
		{DocID: "doc-a", Score: 1.0},
	}}

	results, err := NewSearcher(docs, index).Search(ctx, "query", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-b", results[0].Document.ID)
	assert.Equal(t, 2.5, results[0].Score)
	assert.Equal(t, []string{"match <b>here</b>"}, results[0].Highlights)
	assert.Equal(t, "doc-a", results[1].Document.ID)
}

func TestSearcher_DropsHitsWithoutRecords(t *testing.T) {
	ctx := context.Background()
	docs := storemem.NewDocumentStore()
	require.NoError(t, docs.Upsert(ctx, managedDoc("doc-a", "local")))

	index := &searchMockIndex{hits: []driven.SearchHit{
		{DocID: "deleted-doc", Score: 3.0},
		{DocID: "doc-a", Score: 1.0},
	}}

	results, err := NewSearcher(docs, index).Search(ctx, "query", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-a", results[0].Document.ID)
}

func TestSearcher_TagFilterOverFetches(t *testing.T) {
	ctx := context.Background()
	docs := storemem.NewDocumentStore()

	tagged := managedDoc("doc-a", "local")
	tagged.Tags = []string{"finance", "2024"}
	require.NoError(t, docs.Upsert(ctx, tagged))
	require.NoError(t, docs.Upsert(ctx, managedDoc("doc-b", "local")))

	index := &searchMockIndex{hits: []driven.SearchHit{
		{DocID: "doc-b", Score: 2.0},
		{DocID: "doc-a", Score: 1.0},
	}}

	results, err := NewSearcher(docs, index).Search(ctx, "query", domain.SearchOptions{
		Limit: 5,
		Tags:  []string{"finance"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-a", results[0].Document.ID)

	// Tag filtering asks the index for extra hits to compensate for
	// post-join discards.
	assert.Equal(t, 20, index.lastLimit)
}

func TestSearcher_LimitCapsResults(t *testing.T) {
	ctx := context.Background()
	docs := storemem.NewDocumentStore()
	hits := make([]driven.SearchHit, 0, 5)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, docs.Upsert(ctx, managedDoc("doc-"+id, "local")))
		hits = append(hits, driven.SearchHit{DocID: "doc-" + id})
	}

	results, err := NewSearcher(docs, &searchMockIndex{hits: hits}).
		Search(ctx, "query", domain.SearchOptions{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearcher_NilIndexUnavailable(t *testing.T) {
	_, err := NewSearcher(storemem.NewDocumentStore(), nil).
		Search(context.Background(), "query", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}
