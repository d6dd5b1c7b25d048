package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driving"
	"github.com/inkwell-dms/inkwell/internal/logger"
	"github.com/inkwell-dms/inkwell/internal/sidecar"
)

// Executor applies a sync plan item by item. Execution is the only
// phase allowed to mutate storage or the database; any error while
// processing one item is recorded on that item's result and processing
// continues, so one bad file never aborts the batch.
type Executor struct {
	storage driven.Storage
	docs    driven.DocumentStore
	parsers driven.ParserRegistry
	index   driven.SearchIndex

	progress func(processed, failures int)
}

// NewExecutor creates an executor. The search index may be nil; indexing
// is then skipped.
func NewExecutor(
	storage driven.Storage,
	docs driven.DocumentStore,
	parsers driven.ParserRegistry,
	index driven.SearchIndex,
) *Executor {
	return &Executor{
		storage: storage,
		docs:    docs,
		parsers: parsers,
		index:   index,
	}
}

// SetProgress registers a callback invoked after each item.
func (e *Executor) SetProgress(fn func(processed, failures int)) {
	e.progress = fn
}

// Execute applies the plan. Cancellation is honoured between items,
// never mid-item; a cancelled run returns the partial result
// accumulated so far together with the context error.
func (e *Executor) Execute(ctx context.Context, plan *domain.SyncPlan, opts driving.ExecuteOptions) (*domain.ExecutionResult, error) {
	result := &domain.ExecutionResult{
		Summary:   domain.NewExecutionSummary(),
		StartedAt: time.Now().UTC(),
	}

	wanted := actionFilter(opts.Actions)
	failures := 0

	for _, item := range plan.Items {
		if err := ctx.Err(); err != nil {
			result.CompletedAt = time.Now().UTC()
			return result, err
		}
		if !wanted(item.Action) {
			continue
		}

		itemResult := domain.ItemResult{Item: item, Success: true}
		if err := e.executeItem(ctx, item, opts.Reparse); err != nil {
			itemResult.Success = false
			itemResult.Error = err.Error()
			failures++
			logger.Warn("Sync item %s (%s) failed: %v", item.DocID, item.Action, err)
		}

		result.Items = append(result.Items, itemResult)

		stats := result.Summary[item.Action]
		if itemResult.Success {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		result.Summary[item.Action] = stats

		if e.progress != nil {
			e.progress(len(result.Items), failures)
		}
	}

	result.CompletedAt = time.Now().UTC()
	return result, nil
}

// executeItem applies one plan item.
func (e *Executor) executeItem(ctx context.Context, item domain.SyncPlanItem, reparse bool) error {
	switch item.Action {
	case domain.ActionRestore:
		return e.restore(ctx, item, reparse)
	case domain.ActionReparse:
		return e.reparse(ctx, item)
	case domain.ActionSidecarMissing:
		return e.writeSidecarFromRecord(ctx, item.DocID, item.FilePath)
	case domain.ActionOrphanedDB, domain.ActionVerified:
		// Report-only actions never mutate.
		return nil
	default:
		return fmt.Errorf("%w: action %q", domain.ErrInvalidInput, item.Action)
	}
}

// restore recreates a database record from the sidecar (or, lacking
// one, from the file itself). With reparse set and a cached parser
// artifact on disk, derived content is regenerated through the parser
// instead of trusting stale cached state.
func (e *Executor) restore(ctx context.Context, item domain.SyncPlanItem, reparse bool) error {
	var doc *domain.Document

	if item.SidecarPath != "" {
		data, err := e.storage.Read(ctx, item.SidecarPath)
		if err != nil {
			return fmt.Errorf("reading sidecar: %w", err)
		}
		sc, err := sidecar.Decode(data)
		if err != nil {
			return err
		}
		doc = sc.ToDocument()
	} else {
		now := time.Now().UTC()
		doc = &domain.Document{
			ID:           item.DocID,
			OriginalName: baseName(item.FilePath),
			Status:       domain.StatusNew,
			StorageMode:  domain.StorageModeManaged,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	doc.StorageBackend = e.storage.Backend()
	doc.FilePath = item.FilePath

	// Record first so reparsed pages have a parent row to attach to.
	if err := e.docs.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	if reparse {
		if err := e.parseInto(ctx, doc, true); err != nil {
			return err
		}
		if err := e.docs.Upsert(ctx, doc); err != nil {
			return fmt.Errorf("upserting document: %w", err)
		}
	}

	// A bare file had no sidecar to restore from; write one now so the
	// next plan sees the pair as settled.
	if item.SidecarPath == "" {
		if err := e.writeSidecar(ctx, doc, item.FilePath); err != nil {
			return err
		}
	}

	logger.Debug("Restored record %s from %s", doc.ID, e.storage.Backend())
	return nil
}

// reparse re-extracts content for an existing record after a hash
// mismatch, refreshing the stored hash in both the record and the
// sidecar. The cached artifact is deliberately not consulted: the file
// content changed, so cached derived state is stale by definition.
func (e *Executor) reparse(ctx context.Context, item domain.SyncPlanItem) error {
	doc, err := e.docs.Get(ctx, item.DocID)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	if err := e.parseInto(ctx, doc, false); err != nil {
		return err
	}

	if err := e.docs.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	// Refresh the sidecar so its hash matches the record again.
	return e.writeSidecar(ctx, doc, item.FilePath)
}

// parseInto reads the managed file, runs the parser, and updates the
// record's derived fields in place. When useArtifact is set and a
// cached pages artifact exists alongside the file, it is handed to the
// parser.
func (e *Executor) parseInto(ctx context.Context, doc *domain.Document, useArtifact bool) error {
	content, err := e.storage.Read(ctx, doc.FilePath)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	doc.FileSize = int64(len(content))
	doc.ContentHash = hashBytes(content)
	doc.UpdatedAt = time.Now().UTC()

	name := doc.OriginalName
	if name == "" {
		name = baseName(doc.FilePath)
	}

	if !e.parsers.Supports(name) {
		doc.Status = domain.StatusNotSupported
		doc.PageCount = 0
		return nil
	}

	req := &driven.ParseRequest{
		DocID:    doc.ID,
		FileName: name,
		Content:  content,
	}

	if useArtifact {
		artifactPath := sidecar.ArtifactPathFor(doc.FilePath)
		if data, err := e.storage.Read(ctx, artifactPath); err == nil {
			req.CachedArtifact = data
		}
	}

	parsed, err := e.parsers.Parse(ctx, req)
	if err != nil {
		doc.Status = domain.StatusFailed
		if upsertErr := e.docs.Upsert(ctx, doc); upsertErr != nil {
			return fmt.Errorf("recording parse failure: %w", upsertErr)
		}
		return fmt.Errorf("parsing %s: %w", name, err)
	}

	if err := e.docs.SavePages(ctx, doc.ID, parsed.Pages); err != nil {
		return fmt.Errorf("saving pages: %w", err)
	}

	doc.Status = domain.StatusParsed
	doc.PageCount = len(parsed.Pages)

	// Refresh the cached pages artifact; losing it only costs a future
	// re-parse, so failures are logged and ignored.
	if data, artErr := sidecar.EncodeArtifact(doc.ID, parsed.Pages); artErr == nil {
		if wErr := e.storage.Write(ctx, sidecar.ArtifactPathFor(doc.FilePath), data); wErr != nil {
			logger.Warn("Writing pages artifact for %s: %v", doc.ID, wErr)
		}
	}

	if e.index != nil {
		if err := e.index.Index(ctx, doc, parsed.Content); err != nil {
			return fmt.Errorf("indexing content: %w", err)
		}
	}

	return nil
}

// writeSidecarFromRecord loads the record and writes its sidecar.
// Shared by the sidecar_missing action and the sidecar back-fill
// operation; never mutates the database.
func (e *Executor) writeSidecarFromRecord(ctx context.Context, docID, filePath string) error {
	doc, err := e.docs.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	return e.writeSidecar(ctx, doc, filePath)
}

// writeSidecar serialises a record into sidecar form next to its file.
func (e *Executor) writeSidecar(ctx context.Context, doc *domain.Document, filePath string) error {
	data, err := sidecar.FromDocument(doc).Encode()
	if err != nil {
		return err
	}
	if err := e.storage.Write(ctx, sidecar.PathFor(filePath), data); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}
	return nil
}

// actionFilter returns a predicate over the requested action subset.
func actionFilter(actions []domain.SyncAction) func(domain.SyncAction) bool {
	if len(actions) == 0 {
		return func(domain.SyncAction) bool { return true }
	}
	wanted := make(map[domain.SyncAction]bool, len(actions))
	for _, a := range actions {
		wanted[a] = true
	}
	return func(a domain.SyncAction) bool { return wanted[a] }
}

// hashBytes returns the hex SHA-256 of data.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// baseName returns the final path element.
func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
