// Package vespa is the transport client for the Vespa backend: typed wire
// structures plus an HTTP client for the query and document APIs. It owns no
// schema knowledge; translation to and from the wire shapes lives in
// vespaindex.
package vespa

// Document is the backend's flat wire document: physical field names mapped
// to values, plus an optional document id.
type Document struct {
	ID     string         `json:"id,omitempty"`
	Fields map[string]any `json:"fields"`
}

// SearchRequest is the compiled backend query object. Keys follow the query
// API parameter names ("yql", "hits", "presentation.summary", ...); absent
// parameters are omitted rather than sent as null.
type SearchRequest map[string]any

// SearchResponse is the raw query API response envelope.
type SearchResponse struct {
	Root struct {
		Fields struct {
			TotalCount int `json:"totalCount"`
		} `json:"fields"`
		Children []Hit `json:"children"`
	} `json:"root"`
}

// Hit is a single result row: a flat field map that may include the
// matchfeatures diagnostics block. Grouping results nest further hits under
// Children.
type Hit struct {
	ID        string         `json:"id"`
	Relevance float64        `json:"relevance"`
	Fields    map[string]any `json:"fields"`
	Children  []Hit          `json:"children,omitempty"`
}
