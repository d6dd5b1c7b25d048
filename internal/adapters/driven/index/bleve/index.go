// Package bleve implements the search index port with Bleve v2.
package bleve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// Index wraps a Bleve v2 full-text index over document content.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

// indexedDocument is the structure Bleve indexes per document.
type indexedDocument struct {
	Content      string   `json:"content"`
	OriginalName string   `json:"original_name"`
	Tags         []string `json:"tags"`
}

// New opens or creates a Bleve index at path. An empty path creates an
// in-memory index, for tests.
func New(path string) (*Index, error) {
	m := createMapping()

	var idx bleve.Index
	var err error

	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating index directory: %w", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, m)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	return &Index{index: idx}, nil
}

func createMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("content", contentField)

	nameField := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("original_name", nameField)

	tagsField := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("tags", tagsField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = docMapping
	return m
}

// Index adds or updates a document and its extracted content.
func (x *Index) Index(_ context.Context, doc *domain.Document, content string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return domain.ErrSearchUnavailable
	}

	err := x.index.Index(doc.ID, indexedDocument{
		Content:      content,
		OriginalName: doc.OriginalName,
		Tags:         doc.Tags,
	})
	if err != nil {
		return fmt.Errorf("indexing %s: %w", doc.ID, err)
	}
	return nil
}

// Delete removes a document from the index.
func (x *Index) Delete(_ context.Context, docID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return domain.ErrSearchUnavailable
	}
	if err := x.index.Delete(docID); err != nil {
		return fmt.Errorf("deleting %s from index: %w", docID, err)
	}
	return nil
}

// Search performs a keyword search with highlight snippets.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]driven.SearchHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return nil, domain.ErrSearchUnavailable
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	matchQuery := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit
	req.Highlight = bleve.NewHighlight()

	result, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	hits := make([]driven.SearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var highlights []string
		for _, fragments := range hit.Fragments {
			highlights = append(highlights, fragments...)
		}
		hits = append(hits, driven.SearchHit{
			DocID:      hit.ID,
			Score:      hit.Score,
			Highlights: highlights,
		})
	}
	return hits, nil
}

// Close releases the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return nil
	}
	x.closed = true
	return x.index.Close()
}
