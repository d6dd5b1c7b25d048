package parsers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/logger"
	"github.com/inkwell-dms/inkwell/internal/sidecar"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry dispatches parse requests to registered parsers by file
// extension. When a request carries a cached pages artifact, the
// artifact is decoded instead of re-parsing; a malformed artifact falls
// back to the real parser.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string][]driven.Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string][]driven.Parser),
	}
}

// Register adds a parser for all its supported extensions.
func (r *Registry) Register(p driven.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range p.SupportedExtensions() {
		ext = strings.ToLower(ext)
		r.parsers[ext] = append(r.parsers[ext], p)
		sort.SliceStable(r.parsers[ext], func(i, j int) bool {
			return r.parsers[ext][i].Priority() > r.parsers[ext][j].Priority()
		})
	}
}

// Supports reports whether any registered parser handles the file.
func (r *Registry) Supports(fileName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.parsers[extOf(fileName)]) > 0
}

// Parse routes the request to the highest-priority matching parser.
func (r *Registry) Parse(ctx context.Context, req *driven.ParseRequest) (*driven.ParseResult, error) {
	r.mu.RLock()
	candidates := r.parsers[extOf(req.FileName)]
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no parser for %s: %w", req.FileName, domain.ErrUnsupportedType)
	}

	if req.CachedArtifact != nil {
		pages, err := sidecar.DecodeArtifact(req.CachedArtifact, req.DocID)
		if err == nil {
			return resultFromPages(pages), nil
		}
		logger.Debug("Cached artifact for %s unusable, re-parsing: %v", req.DocID, err)
	}

	return candidates[0].Parse(ctx, req)
}

// resultFromPages rebuilds a parse result from cached pages.
func resultFromPages(pages []domain.Page) *driven.ParseResult {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = p.Content
	}
	return &driven.ParseResult{
		Pages:   pages,
		Content: strings.Join(parts, "\n\n"),
	}
}

func extOf(fileName string) string {
	return strings.ToLower(filepath.Ext(fileName))
}
