package driven

import (
	"context"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
)

// ParseRequest carries one file into the parsing pipeline.
type ParseRequest struct {
	// DocID is the document identifier.
	DocID string

	// FileName is the original file name; its extension selects the parser.
	FileName string

	// Content is the raw file bytes.
	Content []byte

	// CachedArtifact is a previously extracted pages artifact, when one
	// exists alongside the managed file. A parser may trust it instead of
	// re-extracting; it is only ever supplied when reparse was explicitly
	// requested.
	CachedArtifact []byte
}

// ParseResult contains the derived content for a document.
type ParseResult struct {
	// Pages are the extracted pages, in order.
	Pages []domain.Page

	// Content is the full extracted text.
	Content string
}

// Parser extracts content from one family of file types.
type Parser interface {
	// SupportedExtensions returns the file extensions this parser handles,
	// lower case with leading dot (e.g. ".md").
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	Priority() int

	// Parse extracts pages and full text from a file.
	Parse(ctx context.Context, req *ParseRequest) (*ParseResult, error)
}

// ParserRegistry selects a parser by file name.
type ParserRegistry interface {
	// Supports reports whether any registered parser handles the file.
	Supports(fileName string) bool

	// Parse routes the request to the highest-priority matching parser.
	// Returns domain.ErrUnsupportedType if no parser handles the file.
	Parse(ctx context.Context, req *ParseRequest) (*ParseResult, error)
}
