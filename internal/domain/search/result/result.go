// Package result defines the domain search result rows.
package result

import "github.com/sycomix/marqo/internal/domain/document"

// Hit is a single matched document with its relevance score.
type Hit struct {
	Document *document.Document
	Score    float64
}

// Result is one search response page.
type Result struct {
	Hits  []Hit
	Total int
}
