package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driving"
	"github.com/inkwell-dms/inkwell/internal/logger"
	"github.com/inkwell-dms/inkwell/internal/sidecar"
)

// copyWorkers bounds concurrent copies during migration execution.
const copyWorkers = 4

// Migration classification reasons.
const (
	reasonFileMissing    = "File missing at target"
	reasonFileStale      = "File stale at target"
	reasonSidecarAbsent  = "Sidecar missing at target"
	reasonSidecarStale   = "Sidecar stale at target"
	reasonAlreadyPresent = "File and sidecar already present at target"
)

// StorageResolver looks up configured storage backends by name.
type StorageResolver interface {
	// Storage returns the backend with the given name.
	// Returns domain.ErrUnknownBackend for unconfigured names.
	Storage(name string) (driven.Storage, error)

	// Backends lists the configured backend names.
	Backends() []string
}

// Ensure Migrator implements the interface.
var _ driving.MigrationService = (*Migrator)(nil)

// Migrator plans and applies cross-backend copies of managed files and
// sidecars. It operates read-only over the database's world entirely:
// neither planning nor execution ever touches a document record, which
// keeps migration safe to retry and leaves record consistency to a
// follow-up sync run against the new backend.
type Migrator struct {
	resolver StorageResolver
}

// NewMigrator creates a migration service.
func NewMigrator(resolver StorageResolver) *Migrator {
	return &Migrator{resolver: resolver}
}

// PlanMigration compares the two storage trees directly, keyed by
// document ID, and classifies every source file into a copy decision.
// Read-only over both backends.
func (m *Migrator) PlanMigration(ctx context.Context, source, target string) (*domain.MigrationPlan, error) {
	src, dst, err := m.resolve(source, target)
	if err != nil {
		return nil, err
	}

	srcScan, err := NewScanner(src).Scan(ctx, "", false)
	if err != nil {
		return nil, fmt.Errorf("scanning source backend: %w", err)
	}
	dstScan, err := NewScanner(dst).Scan(ctx, "", false)
	if err != nil {
		return nil, fmt.Errorf("scanning target backend: %w", err)
	}

	dstEntries := make(map[string]*ScanEntry, len(dstScan.Entries))
	for i := range dstScan.Entries {
		dstEntries[dstScan.Entries[i].DocID] = &dstScan.Entries[i]
	}

	plan := &domain.MigrationPlan{
		Summary:       make(map[domain.MigrationAction]int),
		SourceBackend: src.Backend(),
		TargetBackend: dst.Backend(),
		ScannedAt:     time.Now().UTC(),
	}

	for _, entry := range srcScan.Entries {
		item, err := m.classify(ctx, src, dst, entry, dstEntries[entry.DocID])
		if err != nil {
			return nil, err
		}
		plan.Items = append(plan.Items, item)
	}

	sort.Slice(plan.Items, func(i, j int) bool {
		return plan.Items[i].DocID < plan.Items[j].DocID
	})
	for _, item := range plan.Items {
		plan.Summary[item.Action]++
	}

	return plan, nil
}

// classify decides the copy action for one source file.
func (m *Migrator) classify(ctx context.Context, src, dst driven.Storage, entry ScanEntry, dstEntry *ScanEntry) (domain.MigrationPlanItem, error) {
	item := domain.MigrationPlanItem{
		DocID:       entry.DocID,
		FileName:    baseName(entry.FilePath),
		SourcePath:  entry.FilePath,
		StorageMode: domain.StorageModeManaged,
	}
	if entry.Sidecar != nil && entry.Sidecar.StorageMode != "" {
		item.StorageMode = entry.Sidecar.StorageMode
	}

	switch {
	case dstEntry == nil:
		item.Action = domain.MigrationCopy
		item.Reason = reasonFileMissing

	default:
		same, err := objectsMatch(ctx, src, dst, entry.FilePath, dstEntry.FilePath, entry.Size, dstEntry.Size)
		if err != nil {
			return item, err
		}
		if !same {
			item.Action = domain.MigrationCopy
			item.Reason = reasonFileStale
			break
		}

		// File is correct at the target; decide about the sidecar.
		switch {
		case entry.Sidecar == nil:
			// Nothing to copy; the follow-up sync against the target
			// will back-fill a sidecar from the database if needed.
			item.Action = domain.MigrationSkipTarget
			item.Reason = reasonAlreadyPresent

		case dstEntry.Sidecar == nil:
			item.Action = domain.MigrationCopySidecar
			item.Reason = reasonSidecarAbsent

		default:
			srcSC := entry.SidecarPath
			dstSC := dstEntry.SidecarPath
			scSame, err := objectsMatch(ctx, src, dst, srcSC, dstSC, -1, -1)
			if err != nil {
				return item, err
			}
			if scSame {
				item.Action = domain.MigrationSkipTarget
				item.Reason = reasonAlreadyPresent
			} else {
				item.Action = domain.MigrationCopySidecar
				item.Reason = reasonSidecarStale
			}
		}
	}

	return item, nil
}

// ExecuteMigration plans internally, then applies the plan.
func (m *Migrator) ExecuteMigration(ctx context.Context, source, target string, deleteSource bool) (*domain.MigrationResult, error) {
	plan, err := m.PlanMigration(ctx, source, target)
	if err != nil {
		return nil, err
	}
	return m.ExecuteMigrationPlan(ctx, plan, deleteSource)
}

// ExecuteMigrationPlan applies a migration plan as pure
// storage-to-storage copies with a bounded worker pool. Each copy is
// verified at the destination before any source delete: a crash
// mid-migration never leaves zero copies of a document.
func (m *Migrator) ExecuteMigrationPlan(ctx context.Context, plan *domain.MigrationPlan, deleteSource bool) (*domain.MigrationResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("executing migration: %w", domain.ErrInvalidInput)
	}

	src, dst, err := m.resolve(plan.SourceBackend, plan.TargetBackend)
	if err != nil {
		return nil, err
	}

	result := &domain.MigrationResult{StartedAt: time.Now().UTC()}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(copyWorkers)

	for _, item := range plan.Items {
		if err := ctx.Err(); err != nil {
			break
		}

		g.Go(func() error {
			itemResult := m.executeItem(gctx, src, dst, item, deleteSource)

			mu.Lock()
			defer mu.Unlock()
			result.Items = append(result.Items, itemResult)
			switch {
			case !itemResult.Success:
				result.Failed++
			case item.Action == domain.MigrationSkipTarget:
				result.Skipped++
			default:
				result.Copied++
			}
			if itemResult.Success && itemResult.Deleted {
				result.Deleted++
			}
			return nil
		})
	}

	waitErr := g.Wait()

	sort.Slice(result.Items, func(i, j int) bool {
		return result.Items[i].Item.DocID < result.Items[j].Item.DocID
	})
	result.CompletedAt = time.Now().UTC()

	logger.Info("Migration %s -> %s: %d copied, %d skipped, %d failed, %d deleted",
		plan.SourceBackend, plan.TargetBackend,
		result.Copied, result.Skipped, result.Failed, result.Deleted)

	if waitErr != nil {
		return result, waitErr
	}
	return result, ctx.Err()
}

// executeItem applies one migration item. Failures are recorded on the
// item result, never propagated, so one bad copy does not abort the batch.
func (m *Migrator) executeItem(ctx context.Context, src, dst driven.Storage, item domain.MigrationPlanItem, deleteSource bool) domain.MigrationItemResult {
	itemResult := domain.MigrationItemResult{Item: item, Success: true}

	if item.Action == domain.MigrationSkipTarget {
		// Already correct at the target: an explicit no-op success so
		// the report covers every document.
		itemResult.DestPath = item.SourcePath
		return itemResult
	}

	fail := func(err error) domain.MigrationItemResult {
		itemResult.Success = false
		itemResult.Error = err.Error()
		logger.Warn("Migration item %s (%s) failed: %v", item.DocID, item.Action, err)
		return itemResult
	}

	scPath := sidecar.PathFor(item.SourcePath)

	if item.Action == domain.MigrationCopy {
		if err := m.copyVerified(ctx, src, dst, item.SourcePath); err != nil {
			return fail(err)
		}
		itemResult.DestPath = item.SourcePath
	}

	// Copy the sidecar for both copy and copy_sidecar actions, when the
	// source has one.
	if exists, err := src.Exists(ctx, scPath); err != nil {
		return fail(fmt.Errorf("checking sidecar: %w", err))
	} else if exists {
		if err := m.copyVerified(ctx, src, dst, scPath); err != nil {
			return fail(err)
		}
		if itemResult.DestPath == "" {
			itemResult.DestPath = scPath
		}
	}

	if !deleteSource {
		return itemResult
	}

	// Copy-verify-then-delete: everything above has been verified at the
	// destination, so the source artifacts can go.
	if item.Action == domain.MigrationCopySidecar {
		// The file was already verified at the target during planning.
		ok, err := dst.Exists(ctx, item.SourcePath)
		if err != nil {
			return fail(fmt.Errorf("checking target file before source delete: %w", err))
		}
		if !ok {
			logger.Warn("Migration item %s: target file %s vanished since planning, keeping source",
				item.DocID, item.SourcePath)
			return itemResult
		}
	}
	if err := src.Delete(ctx, item.SourcePath); err != nil {
		return fail(fmt.Errorf("deleting source file: %w", err))
	}
	if err := src.Delete(ctx, scPath); err != nil {
		return fail(fmt.Errorf("deleting source sidecar: %w", err))
	}
	itemResult.Deleted = true
	return itemResult
}

// copyVerified copies one object and verifies the destination content
// hash against the source bytes before reporting success.
func (m *Migrator) copyVerified(ctx context.Context, src, dst driven.Storage, path string) error {
	data, err := src.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := dst.Write(ctx, path, data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	dstHash, err := dst.Hash(ctx, path)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", path, err)
	}
	if dstHash != hashBytes(data) {
		return fmt.Errorf("%s: %w", path, domain.ErrVerificationFailed)
	}
	return nil
}

// objectsMatch compares one object across two backends, using sizes as
// a shortcut before falling back to content hashes. Negative sizes skip
// the shortcut.
func objectsMatch(ctx context.Context, src, dst driven.Storage, srcPath, dstPath string, srcSize, dstSize int64) (bool, error) {
	if srcSize >= 0 && dstSize >= 0 && srcSize != dstSize {
		return false, nil
	}
	srcHash, err := src.Hash(ctx, srcPath)
	if err != nil {
		return false, fmt.Errorf("hashing %s at source: %w", srcPath, err)
	}
	dstHash, err := dst.Hash(ctx, dstPath)
	if err != nil {
		return false, fmt.Errorf("hashing %s at target: %w", dstPath, err)
	}
	return srcHash == dstHash, nil
}

// resolve looks up both backends and rejects same-backend migration.
func (m *Migrator) resolve(source, target string) (driven.Storage, driven.Storage, error) {
	if source == target {
		return nil, nil, fmt.Errorf("source and target are the same backend: %w", domain.ErrInvalidInput)
	}
	src, err := m.resolver.Storage(source)
	if err != nil {
		return nil, nil, err
	}
	dst, err := m.resolver.Storage(target)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}
