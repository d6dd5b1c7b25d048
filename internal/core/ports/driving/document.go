package driving

import (
	"context"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
)

// IngestService brings new files under management.
type IngestService interface {
	// Ingest copies a file into the managed namespace, writes its
	// sidecar, parses it, and records the document. Returns the created
	// record.
	Ingest(ctx context.Context, localPath string, tags []string) (*domain.Document, error)
}

// DocumentService manages document records.
type DocumentService interface {
	// List returns all document records.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetContent returns the concatenated content of all pages.
	GetContent(ctx context.Context, id string) (string, error)

	// Delete removes a document record, its pages, and its search index
	// entry. Managed file bytes are left in place; removing them is an
	// operator decision.
	Delete(ctx context.Context, id string) error
}

// SearchService queries the full-text index.
type SearchService interface {
	// Search returns ranked results for a query.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
