package domain

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Tags filters results to documents carrying all of these tags.
	Tags []string
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Document is the matched document.
	Document Document

	// Score is the relevance score.
	Score float64

	// Highlights contains snippets with matched terms.
	Highlights []string
}
