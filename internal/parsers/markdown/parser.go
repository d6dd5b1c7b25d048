package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles Markdown files. Top-level headings delimit pages, and
// page content is the text with markdown formatting simplified.
type Parser struct{}

// New creates a new Markdown parser.
func New() *Parser {
	return &Parser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *Parser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50 // Higher than the plaintext fallback
}

// Parse splits the document into pages on H1 headings.
func (p *Parser) Parse(_ context.Context, req *driven.ParseRequest) (*driven.ParseResult, error) {
	if req == nil {
		return nil, domain.ErrInvalidInput
	}

	var pages []domain.Page
	for _, section := range splitSections(string(req.Content)) {
		text := strings.TrimSpace(stripMarkdown(section))
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

	parts := make([]string, len(pages))
	for i, page := range pages {
		parts[i] = page.Content
	}

	return &driven.ParseResult{
		Pages:   pages,
		Content: strings.Join(parts, "\n\n"),
	}, nil
}

// splitSections breaks markdown into sections at H1 headings. Content
// before the first heading forms its own section.
func splitSections(content string) []string {
	lines := strings.Split(content, "\n")

	var sections []string
	var current []string
	inCodeBlock := false

	flush := func() {
		if len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
		}
		if !inCodeBlock && strings.HasPrefix(line, "# ") {
			flush()
		}
		current = append(current, line)
	}
	flush()

	if len(sections) == 0 {
		return []string{content}
	}
	return sections
}

var (
	codeBlockRe  = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	imageRe      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisRe   = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)
)

// stripMarkdown removes common markdown formatting. This is a
// simplified implementation that handles the common cases.
func stripMarkdown(content string) string {
	content = codeBlockRe.ReplaceAllString(content, "")
	content = imageRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = inlineCodeRe.ReplaceAllString(content, "$1")
	content = headingRe.ReplaceAllString(content, "")
	content = emphasisRe.ReplaceAllString(content, "$2")
	return content
}
