// Package memory holds in-memory doubles for the driven storage ports,
// used by service and registry tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	pages     map[string][]domain.Page

	// FailUpserts makes Upsert fail for specific IDs, for fault
	// injection in tests.
	FailUpserts map[string]error
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		pages:     make(map[string][]domain.Page),
	}
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// List returns all documents ordered by ID.
func (s *DocumentStore) List(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Upsert creates or replaces a document record.
func (s *DocumentStore) Upsert(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailUpserts[doc.ID]; ok {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.UpdatedAt = time.Now().UTC()
	s.documents[doc.ID] = *doc
	return nil
}

// SavePages replaces all pages for a document.
func (s *DocumentStore) SavePages(_ context.Context, docID string, pages []domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]domain.Page, len(pages))
	copy(copied, pages)
	s.pages[docID] = copied
	return nil
}

// GetPages returns a document's pages ordered by page number.
func (s *DocumentStore) GetPages(_ context.Context, docID string) ([]domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]domain.Page, len(s.pages[docID]))
	copy(pages, s.pages[docID])
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// Delete removes a document and its pages.
func (s *DocumentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.pages, id)
	return nil
}
