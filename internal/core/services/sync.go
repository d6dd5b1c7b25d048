package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driving"
	"github.com/inkwell-dms/inkwell/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.ReconcileService = (*SyncService)(nil)

// SyncService coordinates the reconciliation pipeline:
// scan, classify, execute. Planning is read-only; ExecutePlan is the
// only path that mutates storage or the database.
type SyncService struct {
	storage driven.Storage
	docs    driven.DocumentStore
	parsers driven.ParserRegistry
	index   driven.SearchIndex

	mu     sync.RWMutex
	status driving.SyncStatus
}

// NewSyncService creates a reconciliation service for one storage
// backend. The search index may be nil.
func NewSyncService(
	storage driven.Storage,
	docs driven.DocumentStore,
	parsers driven.ParserRegistry,
	index driven.SearchIndex,
) *SyncService {
	return &SyncService{
		storage: storage,
		docs:    docs,
		parsers: parsers,
		index:   index,
	}
}

// PlanSync scans storage, indexes the database, and classifies every
// discrepancy. Safe to run repeatedly: unchanged state yields an
// identical plan.
func (s *SyncService) PlanSync(ctx context.Context, opts driving.PlanOptions) (*domain.SyncPlan, error) {
	s.setStatus(driving.SyncStatus{Running: true, Phase: "scanning"})
	defer s.clearStatus()

	scan, err := NewScanner(s.storage).Scan(ctx, opts.Prefix, opts.VerifyContent)
	if err != nil {
		return nil, err
	}

	for _, scanErr := range scan.Errors {
		logger.Warn("Scan: %s: %s", scanErr.Path, scanErr.Err)
	}
	for _, orphan := range scan.OrphanSidecars {
		logger.Debug("Orphan sidecar: %s", orphan)
	}

	s.setStatus(driving.SyncStatus{Running: true, Phase: "planning"})

	index, err := BuildRepositoryIndex(ctx, s.docs, s.storage.Backend())
	if err != nil {
		return nil, err
	}

	return NewReconciler().Reconcile(scan, index, opts.VerifyContent), nil
}

// ExecuteSync plans internally, then applies the plan.
func (s *SyncService) ExecuteSync(ctx context.Context, opts driving.ExecuteOptions) (*domain.ExecutionResult, error) {
	plan, err := s.PlanSync(ctx, opts.PlanOptions)
	if err != nil {
		return nil, err
	}
	return s.ExecutePlan(ctx, plan, opts)
}

// ExecutePlan applies a previously computed plan item by item.
func (s *SyncService) ExecutePlan(ctx context.Context, plan *domain.SyncPlan, opts driving.ExecuteOptions) (*domain.ExecutionResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("executing sync: %w", domain.ErrInvalidInput)
	}

	s.setStatus(driving.SyncStatus{Running: true, Phase: "executing"})
	defer s.clearStatus()

	executor := NewExecutor(s.storage, s.docs, s.parsers, s.index)
	executor.SetProgress(func(processed, failures int) {
		s.setStatus(driving.SyncStatus{
			Running:        true,
			Phase:          "executing",
			ItemsProcessed: processed,
			Failures:       failures,
		})
	})

	result, err := executor.Execute(ctx, plan, opts)
	if result != nil {
		logger.Info("Sync execute complete: %d items, %d failures",
			len(result.Items), len(result.Failures()))
	}
	return result, err
}

// WriteSidecars back-fills missing sidecars from existing database
// records. For every record whose managed file exists but has no
// sidecar, the record is serialised into sidecar form and written;
// everything else is skipped. The database is never written.
func (s *SyncService) WriteSidecars(ctx context.Context, prefix string) (written, skipped int, err error) {
	scan, err := NewScanner(s.storage).Scan(ctx, prefix, false)
	if err != nil {
		return 0, 0, err
	}

	entries := make(map[string]*ScanEntry, len(scan.Entries))
	for i := range scan.Entries {
		entries[scan.Entries[i].DocID] = &scan.Entries[i]
	}

	index, err := BuildRepositoryIndex(ctx, s.docs, s.storage.Backend())
	if err != nil {
		return 0, 0, err
	}

	executor := NewExecutor(s.storage, s.docs, s.parsers, s.index)

	for docID, doc := range index {
		entry, ok := entries[docID]
		if !ok || entry.Sidecar != nil {
			// No file on this backend (orphaned_db territory) or the
			// sidecar is already present.
			skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, skipped, err
		}
		if err := executor.writeSidecar(ctx, doc, entry.FilePath); err != nil {
			return written, skipped, fmt.Errorf("writing sidecar for %s: %w", docID, err)
		}
		written++
	}

	logger.Info("Sidecar back-fill: %d written, %d skipped", written, skipped)
	return written, skipped, nil
}

// Status returns a copy of the current progress.
func (s *SyncService) Status() *driving.SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := s.status
	return &status
}

func (s *SyncService) setStatus(status driving.SyncStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *SyncService) clearStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = driving.SyncStatus{}
}
