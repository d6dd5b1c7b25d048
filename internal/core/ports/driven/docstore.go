package driven

import (
	"context"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
)

// DocumentStore persists document records and their pages.
// Backed by SQLite. All writes are single-record upserts keyed by
// document ID, so each mutation is independently atomic.
type DocumentStore interface {
	// Get retrieves a document by ID.
	// Returns domain.ErrNotFound if no record exists.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns all document records.
	List(ctx context.Context) ([]domain.Document, error)

	// Upsert creates or replaces a document record.
	Upsert(ctx context.Context, doc *domain.Document) error

	// SavePages replaces all pages for a document.
	SavePages(ctx context.Context, docID string, pages []domain.Page) error

	// GetPages returns a document's pages ordered by page number.
	GetPages(ctx context.Context, docID string) ([]domain.Page, error)

	// Delete removes a document and its pages.
	Delete(ctx context.Context, id string) error
}
