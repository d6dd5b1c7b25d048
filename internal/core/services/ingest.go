package services

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driving"
	"github.com/inkwell-dms/inkwell/internal/logger"
	"github.com/inkwell-dms/inkwell/internal/sidecar"
)

// Ensure Ingestor implements the interface.
var _ driving.IngestService = (*Ingestor)(nil)

// Ingestor brings local files under management: the file is copied into
// the managed namespace under a fresh document ID, a sidecar is written
// beside it, and the document is parsed and recorded. The write order
// is file, then sidecar, then record, so an interruption at any point
// is healed by the next sync run.
type Ingestor struct {
	storage driven.Storage
	docs    driven.DocumentStore
	parsers driven.ParserRegistry
	index   driven.SearchIndex
}

// NewIngestor creates an ingest service. index may be nil.
func NewIngestor(
	storage driven.Storage,
	docs driven.DocumentStore,
	parsers driven.ParserRegistry,
	index driven.SearchIndex,
) *Ingestor {
	return &Ingestor{
		storage: storage,
		docs:    docs,
		parsers: parsers,
		index:   index,
	}
}

// Ingest copies localPath into managed storage and records the document.
func (g *Ingestor) Ingest(ctx context.Context, localPath string, tags []string) (*domain.Document, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", localPath, err)
	}

	originalName := filepath.Base(localPath)
	docID := uuid.New().String()
	managedPath := docID + path.Ext(originalName)

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:             docID,
		OriginalName:   originalName,
		Status:         domain.StatusNew,
		StorageMode:    domain.StorageModeManaged,
		StorageBackend: g.storage.Backend(),
		FilePath:       managedPath,
		FileSize:       int64(len(content)),
		ContentHash:    hashBytes(content),
		Tags:           tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := g.storage.Write(ctx, managedPath, content); err != nil {
		return nil, fmt.Errorf("writing managed file: %w", err)
	}

	sc, err := sidecar.FromDocument(doc).Encode()
	if err != nil {
		return nil, err
	}
	if err := g.storage.Write(ctx, sidecar.PathFor(managedPath), sc); err != nil {
		return nil, fmt.Errorf("writing sidecar: %w", err)
	}

	// Record first so pages have a parent row to attach to.
	if err := g.docs.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("recording document: %w", err)
	}

	if err := g.parse(ctx, doc, content); err != nil {
		// The file and sidecar are already on disk; record whatever
		// status parse left behind so the document is not lost.
		if upsertErr := g.docs.Upsert(ctx, doc); upsertErr != nil {
			return nil, fmt.Errorf("recording document after parse failure: %w", upsertErr)
		}
		return doc, err
	}

	if err := g.docs.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("recording document: %w", err)
	}

	// The sidecar carries the status, so refresh it after parsing.
	refreshed, err := sidecar.FromDocument(doc).Encode()
	if err != nil {
		return nil, err
	}
	if err := g.storage.Write(ctx, sidecar.PathFor(managedPath), refreshed); err != nil {
		return nil, fmt.Errorf("refreshing sidecar: %w", err)
	}

	logger.Info("Ingested %s as %s (%s)", originalName, docID, doc.Status)
	return doc, nil
}

// parse runs the parser pipeline and updates the record in place.
func (g *Ingestor) parse(ctx context.Context, doc *domain.Document, content []byte) error {
	if !g.parsers.Supports(doc.OriginalName) {
		doc.Status = domain.StatusNotSupported
		return nil
	}

	parsed, err := g.parsers.Parse(ctx, &driven.ParseRequest{
		DocID:    doc.ID,
		FileName: doc.OriginalName,
		Content:  content,
	})
	if err != nil {
		doc.Status = domain.StatusFailed
		return fmt.Errorf("parsing %s: %w", doc.OriginalName, err)
	}

	if err := g.docs.SavePages(ctx, doc.ID, parsed.Pages); err != nil {
		return fmt.Errorf("saving pages: %w", err)
	}

	doc.Status = domain.StatusParsed
	doc.PageCount = len(parsed.Pages)

	// Cache the pages artifact beside the file; failures only cost a
	// future re-parse.
	if data, artErr := sidecar.EncodeArtifact(doc.ID, parsed.Pages); artErr == nil {
		if wErr := g.storage.Write(ctx, sidecar.ArtifactPathFor(doc.FilePath), data); wErr != nil {
			logger.Warn("Writing pages artifact for %s: %v", doc.ID, wErr)
		}
	}

	if g.index != nil {
		if err := g.index.Index(ctx, doc, parsed.Content); err != nil {
			return fmt.Errorf("indexing content: %w", err)
		}
	}
	return nil
}
