package plaintext

import (
	"context"
	"strings"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles plain text files. Form feed characters delimit pages;
// content without them becomes a single page.
type Parser struct{}

// New creates a new plain text parser.
func New() *Parser {
	return &Parser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *Parser) SupportedExtensions() []string {
	return []string{
		".txt",
		".text",
		".log",
		".csv",
		".json",
		".yaml",
		".yml",
		".toml",
		".xml",
	}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 5 // Fallback parser
}

// Parse splits the file into pages on form feeds.
func (p *Parser) Parse(_ context.Context, req *driven.ParseRequest) (*driven.ParseResult, error) {
	if req == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(req.Content)

	var pages []domain.Page
	for _, chunk := range strings.Split(content, "\f") {
		text := strings.TrimRight(chunk, "\n")
		if text == "" && len(pages) > 0 {
			continue
		}
		pages = append(pages, domain.Page{
			DocumentID: req.DocID,
			Number:     len(pages) + 1,
			Content:    text,
		})
	}
	if len(pages) == 0 {
		pages = []domain.Page{{DocumentID: req.DocID, Number: 1}}
	}

	return &driven.ParseResult{
		Pages:   pages,
		Content: strings.ReplaceAll(content, "\f", "\n\n"),
	}, nil
}
