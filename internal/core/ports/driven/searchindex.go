package driven

import (
	"context"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
)

// SearchIndex provides full-text search over document content.
// Backed by Bleve.
type SearchIndex interface {
	// Index adds or updates a document and its extracted content.
	Index(ctx context.Context, doc *domain.Document, content string) error

	// Delete removes a document from the index.
	Delete(ctx context.Context, docID string) error

	// Search performs a keyword search and returns matching document IDs
	// with scores and highlight snippets.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)

	// Close releases resources.
	Close() error
}

// SearchHit represents a search result from the index.
type SearchHit struct {
	// DocID is the matched document.
	DocID string

	// Score is the relevance score.
	Score float64

	// Highlights contains snippets with matched terms.
	Highlights []string
}
