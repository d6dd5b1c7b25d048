package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driving"
	"github.com/inkwell-dms/inkwell/internal/logger"
)

// Ensure DocumentManager implements the interface.
var _ driving.DocumentService = (*DocumentManager)(nil)

// DocumentManager serves record reads and record deletion. Deletion is
// database-and-index only: the managed file bytes stay on disk, and the
// next sync reports them as a restore candidate.
type DocumentManager struct {
	docs  driven.DocumentStore
	index driven.SearchIndex
}

// NewDocumentManager creates a document service. index may be nil.
func NewDocumentManager(docs driven.DocumentStore, index driven.SearchIndex) *DocumentManager {
	return &DocumentManager{docs: docs, index: index}
}

// List returns all document records.
func (d *DocumentManager) List(ctx context.Context) ([]domain.Document, error) {
	return d.docs.List(ctx)
}

// Get retrieves a document by ID.
func (d *DocumentManager) Get(ctx context.Context, id string) (*domain.Document, error) {
	return d.docs.Get(ctx, id)
}

// GetContent returns the concatenated page content of a document.
func (d *DocumentManager) GetContent(ctx context.Context, id string) (string, error) {
	if _, err := d.docs.Get(ctx, id); err != nil {
		return "", err
	}
	pages, err := d.docs.GetPages(ctx, id)
	if err != nil {
		return "", fmt.Errorf("loading pages: %w", err)
	}

	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = p.Content
	}
	return strings.Join(parts, "\n\n"), nil
}

// Delete removes a record, its pages, and its index entry.
func (d *DocumentManager) Delete(ctx context.Context, id string) error {
	if _, err := d.docs.Get(ctx, id); err != nil {
		return err
	}
	if err := d.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if d.index != nil {
		if err := d.index.Delete(ctx, id); err != nil {
			// The record is gone; a stale index entry is harmless and
			// disappears on the next reindex.
			logger.Warn("Removing %s from search index: %v", id, err)
		}
	}
	return nil
}
