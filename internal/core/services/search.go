package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driving"
	"github.com/inkwell-dms/inkwell/internal/logger"
)

// defaultSearchLimit caps result sets when the caller gives no limit.
const defaultSearchLimit = 10

// Ensure Searcher implements the interface.
var _ driving.SearchService = (*Searcher)(nil)

// Searcher joins full-text index hits with their document records.
type Searcher struct {
	docs  driven.DocumentStore
	index driven.SearchIndex
}

// NewSearcher creates a search service.
func NewSearcher(docs driven.DocumentStore, index driven.SearchIndex) *Searcher {
	return &Searcher{docs: docs, index: index}
}

// Search returns ranked results for a query. Hits whose record has been
// deleted since indexing are dropped silently; tag filtering happens
// after the record join.
func (s *Searcher) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if s.index == nil {
		return nil, domain.ErrSearchUnavailable
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	// Over-fetch when tag filtering may discard hits.
	fetch := limit
	if len(opts.Tags) > 0 {
		fetch = limit * 4
	}

	hits, err := s.index.Search(ctx, query, fetch)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		doc, err := s.docs.Get(ctx, hit.DocID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Search hit %s has no record, skipping", hit.DocID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading document %s: %w", hit.DocID, err)
		}
		if !hasAllTags(doc.Tags, opts.Tags) {
			continue
		}
		results = append(results, domain.SearchResult{
			Document:   *doc,
			Score:      hit.Score,
			Highlights: hit.Highlights,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// hasAllTags reports whether have contains every tag in want.
func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, t := range want {
		if !set[t] {
			return false
		}
	}
	return true
}
