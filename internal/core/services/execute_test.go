package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmem "github.com/inkwell-dms/inkwell/internal/adapters/driven/blobstore/memory"
	storemem "github.com/inkwell-dms/inkwell/internal/adapters/driven/storage/memory"
	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driving"
	"github.com/inkwell-dms/inkwell/internal/sidecar"
)

// --- Mock implementations for executor testing ---

// execMockParsers implements driven.ParserRegistry. It accepts .txt
// files and splits nothing: the whole content is page one.
type execMockParsers struct {
	failFor map[string]error
	calls   int
}

func (m *execMockParsers) Supports(fileName string) bool {
	return strings.HasSuffix(fileName, ".txt")
}

func (m *execMockParsers) Parse(_ context.Context, req *driven.ParseRequest) (*driven.ParseResult, error) {
	m.calls++
	if err, ok := m.failFor[req.DocID]; ok {
		return nil, err
	}
	if req.CachedArtifact != nil {
		pages, err := sidecar.DecodeArtifact(req.CachedArtifact, req.DocID)
		if err == nil {
			return &driven.ParseResult{Pages: pages, Content: "cached"}, nil
		}
	}
	content := string(req.Content)
	return &driven.ParseResult{
		Pages:   []domain.Page{{DocumentID: req.DocID, Number: 1, Content: content}},
		Content: content,
	}, nil
}

// execMockIndex implements driven.SearchIndex recording indexed IDs.
type execMockIndex struct {
	indexed map[string]string
	deleted []string
}

func newExecMockIndex() *execMockIndex {
	return &execMockIndex{indexed: make(map[string]string)}
}

func (m *execMockIndex) Index(_ context.Context, doc *domain.Document, content string) error {
	m.indexed[doc.ID] = content
	return nil
}

func (m *execMockIndex) Delete(_ context.Context, docID string) error {
	m.deleted = append(m.deleted, docID)
	return nil
}

func (m *execMockIndex) Search(context.Context, string, int) ([]driven.SearchHit, error) {
	return nil, nil
}

func (m *execMockIndex) Close() error { return nil }

type execFixture struct {
	storage *blobmem.Storage
	docs    *storemem.DocumentStore
	parsers *execMockParsers
	index   *execMockIndex
	sync    *SyncService
}

func newExecFixture() *execFixture {
	f := &execFixture{
		storage: blobmem.New("local"),
		docs:    storemem.NewDocumentStore(),
		parsers: &execMockParsers{},
		index:   newExecMockIndex(),
	}
	f.sync = NewSyncService(f.storage, f.docs, f.parsers, f.index)
	return f
}

// seedManaged writes a file plus sidecar into storage.
func (f *execFixture) seedManaged(t *testing.T, docID, content string, tags []string) {
	t.Helper()
	ctx := context.Background()
	filePath := docID + ".txt"
	require.NoError(t, f.storage.Write(ctx, filePath, []byte(content)))

	data, err := (&sidecar.Sidecar{
		Version:      sidecar.CurrentVersion,
		DocID:        docID,
		OriginalName: docID + ".txt",
		Status:       domain.StatusParsed,
		StorageMode:  domain.StorageModeManaged,
		Tags:         tags,
		ContentHash:  hashBytes([]byte(content)),
	}).Encode()
	require.NoError(t, err)
	require.NoError(t, f.storage.Write(ctx, sidecar.PathFor(filePath), data))
}

func TestExecuteSync_RestoreFromSidecar(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()
	f.seedManaged(t, "doc-a", "hello world", []string{"report", "2024"})

	result, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.True(t, result.Items[0].Success)

	doc, err := f.docs.Get(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"report", "2024"}, doc.Tags)
	assert.Equal(t, "local", doc.StorageBackend)
	assert.Equal(t, "doc-a.txt", doc.FilePath)
	// Without reparse the parser is never invoked.
	assert.Zero(t, f.parsers.calls)
}

func TestExecuteSync_RestoreWithoutSidecarBuildsMinimalRecord(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()
	require.NoError(t, f.storage.Write(ctx, "doc-a.txt", []byte("hello")))

	result, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.True(t, result.Items[0].Success)

	doc, err := f.docs.Get(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, doc.Status)
	assert.Equal(t, "doc-a.txt", doc.OriginalName)

	// The restore also writes the sidecar the file was missing, so the
	// next plan sees the pair as settled.
	data, err := f.storage.Read(ctx, "doc-a.metadata.json")
	require.NoError(t, err)
	sc, err := sidecar.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "doc-a", sc.DocID)

	plan, err := f.sync.PlanSync(ctx, driving.PlanOptions{})
	require.NoError(t, err)
	require.Len(t, plan.Items, 1)
	assert.Equal(t, domain.ActionVerified, plan.Items[0].Action)
}

func TestExecuteSync_RestoreWithReparseExtractsContent(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()
	f.seedManaged(t, "doc-a", "hello world", nil)

	result, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{Reparse: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.True(t, result.Items[0].Success)

	doc, err := f.docs.Get(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusParsed, doc.Status)
	assert.Equal(t, 1, doc.PageCount)
	assert.Equal(t, hashBytes([]byte("hello world")), doc.ContentHash)

	pages, err := f.docs.GetPages(ctx, "doc-a")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "hello world", pages[0].Content)

	assert.Contains(t, f.index.indexed, "doc-a")

	// The pages artifact is cached beside the file.
	exists, err := f.storage.Exists(ctx, "doc-a.pages.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExecuteSync_RestoreWithReparseUsesCachedArtifact(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()
	f.seedManaged(t, "doc-a", "hello world", nil)

	artifact, err := sidecar.EncodeArtifact("doc-a", []domain.Page{
		{DocumentID: "doc-a", Number: 1, Content: "from cache"},
	})
	require.NoError(t, err)
	require.NoError(t, f.storage.Write(ctx, "doc-a.pages.json", artifact))

	_, err = f.sync.ExecuteSync(ctx, driving.ExecuteOptions{Reparse: true})
	require.NoError(t, err)

	pages, err := f.docs.GetPages(ctx, "doc-a")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "from cache", pages[0].Content)
}

func TestExecuteSync_SidecarMissingWritesSidecar(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()

	require.NoError(t, f.storage.Write(ctx, "doc-a.txt", []byte("hello")))
	doc := managedDoc("doc-a", "local")
	doc.Tags = []string{"invoices"}
	require.NoError(t, f.docs.Upsert(ctx, doc))

	result, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, domain.ActionSidecarMissing, result.Items[0].Item.Action)
	assert.True(t, result.Items[0].Success)

	data, err := f.storage.Read(ctx, "doc-a.metadata.json")
	require.NoError(t, err)
	sc, err := sidecar.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "doc-a", sc.DocID)
	assert.Equal(t, []string{"invoices"}, sc.Tags)
}

func TestExecuteSync_OrphanedDBNeverMutates(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()

	doc := managedDoc("doc-a", "local")
	require.NoError(t, f.docs.Upsert(ctx, doc))

	result, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, domain.ActionOrphanedDB, result.Items[0].Item.Action)
	assert.True(t, result.Items[0].Success)

	// Record is still there, untouched by execution.
	_, err = f.docs.Get(ctx, "doc-a")
	require.NoError(t, err)
	objects, err := f.storage.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestExecuteSync_ReparseOnHashMismatch(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()

	// File content drifted after the record was made.
	require.NoError(t, f.storage.Write(ctx, "doc-a.txt", []byte("new content")))
	data, err := (&sidecar.Sidecar{
		Version: 1, DocID: "doc-a", StorageMode: domain.StorageModeManaged,
	}).Encode()
	require.NoError(t, err)
	require.NoError(t, f.storage.Write(ctx, "doc-a.metadata.json", data))

	doc := managedDoc("doc-a", "local")
	doc.ContentHash = "stale-hash"
	require.NoError(t, f.docs.Upsert(ctx, doc))

	result, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{
		PlanOptions: driving.PlanOptions{VerifyContent: true},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, domain.ActionReparse, result.Items[0].Item.Action)
	assert.True(t, result.Items[0].Success)

	updated, err := f.docs.Get(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, hashBytes([]byte("new content")), updated.ContentHash)
	assert.Equal(t, domain.StatusParsed, updated.Status)

	// Sidecar hash refreshed too.
	scData, err := f.storage.Read(ctx, "doc-a.metadata.json")
	require.NoError(t, err)
	sc, err := sidecar.Decode(scData)
	require.NoError(t, err)
	assert.Equal(t, hashBytes([]byte("new content")), sc.ContentHash)
}

func TestExecuteSync_PerItemFailureIsolation(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()

	require.NoError(t, f.storage.Write(ctx, "doc-a.txt", []byte("a")))
	require.NoError(t, f.storage.Write(ctx, "doc-b.txt", []byte("b")))
	require.NoError(t, f.storage.Write(ctx, "doc-c.txt", []byte("c")))
	f.docs.FailUpserts = map[string]error{"doc-b": fmt.Errorf("disk full")}

	result, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{})
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	assert.True(t, result.Items[0].Success)
	assert.False(t, result.Items[1].Success)
	assert.Contains(t, result.Items[1].Error, "disk full")
	assert.True(t, result.Items[2].Success)

	stats := result.Summary[domain.ActionRestore]
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
}

func TestExecuteSync_ParseFailureRecordsFailedStatus(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()
	f.seedManaged(t, "doc-a", "content", nil)
	f.parsers.failFor = map[string]error{"doc-a": fmt.Errorf("corrupt file")}

	result, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{Reparse: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.False(t, result.Items[0].Success)

	doc, err := f.docs.Get(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)
}

func TestExecuteSync_UnsupportedTypeMarksNotSupported(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()

	require.NoError(t, f.storage.Write(ctx, "doc-a.bin", []byte{0x01}))
	data, err := (&sidecar.Sidecar{
		Version: 1, DocID: "doc-a", OriginalName: "doc-a.bin",
		StorageMode: domain.StorageModeManaged,
	}).Encode()
	require.NoError(t, err)
	require.NoError(t, f.storage.Write(ctx, "doc-a.metadata.json", data))

	result, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{Reparse: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.True(t, result.Items[0].Success)

	doc, err := f.docs.Get(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotSupported, doc.Status)
}

func TestExecuteSync_ActionFilter(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()

	// A restore candidate and a sidecar_missing candidate.
	require.NoError(t, f.storage.Write(ctx, "doc-a.txt", []byte("a")))
	require.NoError(t, f.storage.Write(ctx, "doc-b.txt", []byte("b")))
	require.NoError(t, f.docs.Upsert(ctx, managedDoc("doc-b", "local")))

	result, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{
		Actions: []domain.SyncAction{domain.ActionSidecarMissing},
	})
	require.NoError(t, err)

	// Only the sidecar_missing item ran.
	require.Len(t, result.Items, 1)
	assert.Equal(t, domain.ActionSidecarMissing, result.Items[0].Item.Action)
	_, err = f.docs.Get(ctx, "doc-a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExecuteSync_Idempotence(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()
	f.seedManaged(t, "doc-a", "hello", nil)
	require.NoError(t, f.storage.Write(ctx, "doc-b.txt", []byte("b")))
	require.NoError(t, f.docs.Upsert(ctx, managedDoc("doc-c", "local")))

	// One execute settles every repairable discrepancy: re-planning
	// leaves only orphaned_db (report-only) and verified items.
	_, err := f.sync.ExecuteSync(ctx, driving.ExecuteOptions{})
	require.NoError(t, err)

	plan, err := f.sync.PlanSync(ctx, driving.PlanOptions{})
	require.NoError(t, err)
	for _, item := range plan.Items {
		assert.Contains(t,
			[]domain.SyncAction{domain.ActionVerified, domain.ActionOrphanedDB},
			item.Action, "doc %s still pending after sync", item.DocID)
	}
}

func TestExecuteSync_CancellationReturnsPartialResult(t *testing.T) {
	f := newExecFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.storage.Write(context.Background(), "doc-a.txt", []byte("a")))

	plan, err := f.sync.PlanSync(context.Background(), driving.PlanOptions{})
	require.NoError(t, err)

	result, err := f.sync.ExecutePlan(ctx, plan, driving.ExecuteOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Items)
}

func TestWriteSidecars_BackfillsOnlyMissing(t *testing.T) {
	ctx := context.Background()
	f := newExecFixture()

	// doc-a: file present, sidecar missing -> written.
	require.NoError(t, f.storage.Write(ctx, "doc-a.txt", []byte("a")))
	require.NoError(t, f.docs.Upsert(ctx, managedDoc("doc-a", "local")))

	// doc-b: file and sidecar present -> skipped.
	f.seedManaged(t, "doc-b", "b", nil)
	require.NoError(t, f.docs.Upsert(ctx, managedDoc("doc-b", "local")))

	// doc-c: record without file -> skipped.
	require.NoError(t, f.docs.Upsert(ctx, managedDoc("doc-c", "local")))

	written, skipped, err := f.sync.WriteSidecars(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, 2, skipped)

	exists, err := f.storage.Exists(ctx, "doc-a.metadata.json")
	require.NoError(t, err)
	assert.True(t, exists)
}
