package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// Classification reasons. These are operator-facing strings carried on
// every plan item.
const (
	reasonRestore        = "File and sidecar on disk, no DB record"
	reasonRestoreNoMeta  = "File on disk, no sidecar, no DB record"
	reasonSidecarMissing = "DB record exists, sidecar missing on disk"
	reasonOrphanedDB     = "DB record exists, file missing on disk"
	reasonHashMismatch   = "Content hash mismatch"
	reasonVerified       = "File, sidecar, and DB record consistent"
)

// RepositoryIndex is an in-memory id-to-record map built from the
// database for O(1) lookup during classification. Only managed records
// for the scanned backend participate: external documents and documents
// on other backends are never reconciled.
type RepositoryIndex map[string]*domain.Document

// BuildRepositoryIndex loads all records and filters them to the
// managed namespace of one backend.
func BuildRepositoryIndex(ctx context.Context, store driven.DocumentStore, backend string) (RepositoryIndex, error) {
	docs, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	index := make(RepositoryIndex, len(docs))
	for i := range docs {
		doc := &docs[i]
		if doc.StorageMode != domain.StorageModeManaged {
			continue
		}
		if doc.StorageBackend != backend {
			continue
		}
		index[doc.ID] = doc
	}
	return index, nil
}

// Reconciler joins a storage inventory with a repository index and
// classifies every document ID into exactly one action. Pure in-memory
// computation: it never blocks and never mutates anything.
type Reconciler struct{}

// NewReconciler creates a reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Reconcile classifies the union of scanned files and indexed records.
// The returned plan is sorted by DocID ascending, so repeated scans over
// unchanged state produce identical plans.
func (r *Reconciler) Reconcile(scan *ScanResult, index RepositoryIndex, verifyContent bool) *domain.SyncPlan {
	plan := &domain.SyncPlan{
		Summary:   make(map[domain.SyncAction]int),
		Backend:   scan.Backend,
		ScannedAt: time.Now().UTC(),
	}

	seen := make(map[string]bool, len(scan.Entries))

	for _, entry := range scan.Entries {
		seen[entry.DocID] = true
		plan.Items = append(plan.Items, r.classifyFile(entry, index[entry.DocID], verifyContent))
	}

	// Records whose file never showed up in the scan.
	for docID, doc := range index {
		if seen[docID] {
			continue
		}
		plan.Items = append(plan.Items, domain.SyncPlanItem{
			DocID:    docID,
			FilePath: doc.FilePath,
			Action:   domain.ActionOrphanedDB,
			Reason:   reasonOrphanedDB,
		})
	}

	sort.Slice(plan.Items, func(i, j int) bool {
		return plan.Items[i].DocID < plan.Items[j].DocID
	})

	for _, item := range plan.Items {
		plan.Summary[item.Action]++
	}

	return plan
}

// classifyFile assigns the action for one scanned file. Decision order
// is fixed; the first matching rule wins.
func (r *Reconciler) classifyFile(entry ScanEntry, doc *domain.Document, verifyContent bool) domain.SyncPlanItem {
	item := domain.SyncPlanItem{
		DocID:       entry.DocID,
		FilePath:    entry.FilePath,
		SidecarPath: entry.SidecarPath,
	}

	switch {
	case doc == nil && entry.Sidecar != nil:
		item.Action = domain.ActionRestore
		item.Reason = reasonRestore

	case doc == nil:
		// No sidecar to recover from; restore rebuilds a minimal record
		// from the file itself.
		item.Action = domain.ActionRestore
		item.Reason = reasonRestoreNoMeta

	case entry.Sidecar == nil:
		item.Action = domain.ActionSidecarMissing
		item.Reason = reasonSidecarMissing

	case verifyContent && entry.Hash != "" && storedHash(entry, doc) != "" && storedHash(entry, doc) != entry.Hash:
		item.Action = domain.ActionReparse
		item.Reason = reasonHashMismatch

	default:
		item.Action = domain.ActionVerified
		item.Reason = reasonVerified
	}

	return item
}

// storedHash returns the hash of record against which a fresh hash is
// compared: the record's when known, otherwise the sidecar's.
func storedHash(entry ScanEntry, doc *domain.Document) string {
	if doc != nil && doc.ContentHash != "" {
		return doc.ContentHash
	}
	if entry.Sidecar != nil {
		return entry.Sidecar.ContentHash
	}
	return ""
}
