package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-dms/inkwell/internal/adapters/driven/storage/memory"
	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/sidecar"
)

func managedDoc(id, backend string) *domain.Document {
	return &domain.Document{
		ID:             id,
		OriginalName:   id + ".txt",
		Status:         domain.StatusParsed,
		StorageMode:    domain.StorageModeManaged,
		StorageBackend: backend,
		FilePath:       id + ".txt",
	}
}

func TestBuildRepositoryIndex_FiltersExternalAndOtherBackends(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()

	require.NoError(t, store.Upsert(ctx, managedDoc("doc-a", "local")))

	other := managedDoc("doc-b", "minio")
	require.NoError(t, store.Upsert(ctx, other))

	external := managedDoc("doc-c", "local")
	external.StorageMode = domain.StorageModeExternal
	require.NoError(t, store.Upsert(ctx, external))

	index, err := BuildRepositoryIndex(ctx, store, "local")
	require.NoError(t, err)

	assert.Len(t, index, 1)
	assert.Contains(t, index, "doc-a")
}

func TestReconcile_Classification(t *testing.T) {
	sc := &sidecar.Sidecar{Version: 1, DocID: "x"}

	tests := []struct {
		name       string
		entry      *ScanEntry
		doc        *domain.Document
		verify     bool
		wantAction domain.SyncAction
	}{
		{
			name:       "file and sidecar, no record",
			entry:      &ScanEntry{DocID: "x", FilePath: "x.txt", SidecarPath: "x.metadata.json", Sidecar: sc},
			wantAction: domain.ActionRestore,
		},
		{
			name:       "file only, no record",
			entry:      &ScanEntry{DocID: "x", FilePath: "x.txt"},
			wantAction: domain.ActionRestore,
		},
		{
			name:       "record exists, sidecar missing",
			entry:      &ScanEntry{DocID: "x", FilePath: "x.txt"},
			doc:        managedDoc("x", "local"),
			wantAction: domain.ActionSidecarMissing,
		},
		{
			name:       "record missing file",
			doc:        managedDoc("x", "local"),
			wantAction: domain.ActionOrphanedDB,
		},
		{
			name: "hash mismatch with verify",
			entry: &ScanEntry{
				DocID: "x", FilePath: "x.txt", SidecarPath: "x.metadata.json",
				Sidecar: sc, Hash: "fresh",
			},
			doc: func() *domain.Document {
				d := managedDoc("x", "local")
				d.ContentHash = "stale"
				return d
			}(),
			verify:     true,
			wantAction: domain.ActionReparse,
		},
		{
			name: "hash mismatch without verify is verified",
			entry: &ScanEntry{
				DocID: "x", FilePath: "x.txt", SidecarPath: "x.metadata.json",
				Sidecar: sc,
			},
			doc: func() *domain.Document {
				d := managedDoc("x", "local")
				d.ContentHash = "stale"
				return d
			}(),
			wantAction: domain.ActionVerified,
		},
		{
			name: "consistent everything",
			entry: &ScanEntry{
				DocID: "x", FilePath: "x.txt", SidecarPath: "x.metadata.json",
				Sidecar: sc, Hash: "same",
			},
			doc: func() *domain.Document {
				d := managedDoc("x", "local")
				d.ContentHash = "same"
				return d
			}(),
			verify:     true,
			wantAction: domain.ActionVerified,
		},
		{
			name: "hash failure falls back to verified",
			entry: &ScanEntry{
				DocID: "x", FilePath: "x.txt", SidecarPath: "x.metadata.json",
				Sidecar: sc, // no fresh hash computed
			},
			doc: func() *domain.Document {
				d := managedDoc("x", "local")
				d.ContentHash = "stale"
				return d
			}(),
			verify:     true,
			wantAction: domain.ActionVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan := &ScanResult{Backend: "local"}
			if tt.entry != nil {
				scan.Entries = append(scan.Entries, *tt.entry)
			}
			index := RepositoryIndex{}
			if tt.doc != nil {
				index[tt.doc.ID] = tt.doc
			}

			plan := NewReconciler().Reconcile(scan, index, tt.verify)

			require.Len(t, plan.Items, 1)
			assert.Equal(t, tt.wantAction, plan.Items[0].Action)
			assert.NotEmpty(t, plan.Items[0].Reason)
			assert.Equal(t, 1, plan.Summary[tt.wantAction])
		})
	}
}

func TestReconcile_SidecarHashUsedWhenRecordHashEmpty(t *testing.T) {
	doc := managedDoc("x", "local")
	doc.ContentHash = ""

	scan := &ScanResult{
		Backend: "local",
		Entries: []ScanEntry{{
			DocID: "x", FilePath: "x.txt", SidecarPath: "x.metadata.json",
			Sidecar: &sidecar.Sidecar{Version: 1, DocID: "x", ContentHash: "stale"},
			Hash:    "fresh",
		}},
	}

	plan := NewReconciler().Reconcile(scan, RepositoryIndex{"x": doc}, true)

	require.Len(t, plan.Items, 1)
	assert.Equal(t, domain.ActionReparse, plan.Items[0].Action)
}

func TestReconcile_DeterministicOrdering(t *testing.T) {
	scan := &ScanResult{
		Backend: "local",
		Entries: []ScanEntry{
			{DocID: "charlie", FilePath: "charlie.txt"},
			{DocID: "alpha", FilePath: "alpha.txt"},
		},
	}
	index := RepositoryIndex{"bravo": managedDoc("bravo", "local")}

	plan := NewReconciler().Reconcile(scan, index, false)

	require.Len(t, plan.Items, 3)
	assert.Equal(t, "alpha", plan.Items[0].DocID)
	assert.Equal(t, "bravo", plan.Items[1].DocID)
	assert.Equal(t, "charlie", plan.Items[2].DocID)
}

func TestReconcile_EveryDocIDClassifiedExactlyOnce(t *testing.T) {
	scan := &ScanResult{
		Backend: "local",
		Entries: []ScanEntry{
			{DocID: "a", FilePath: "a.txt"},
			{DocID: "b", FilePath: "b.txt"},
		},
	}
	index := RepositoryIndex{
		"b": managedDoc("b", "local"),
		"c": managedDoc("c", "local"),
	}

	plan := NewReconciler().Reconcile(scan, index, false)

	seen := make(map[string]int)
	for _, item := range plan.Items {
		seen[item.DocID]++
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, seen)
}
