// Package vespaindex translates between the domain document/query model and
// the Vespa wire shapes of a structured index: document marshaling in both
// directions, query compilation to YQL, and highlight extraction from match
// features. Every operation is a pure transformation; the package holds no
// cross-call state and never touches the network.
package vespaindex

// Reserved wire field names.
const (
	FieldID             = "marqo__id"
	FieldVectorCount    = "marqo__vector_count"
	FieldScoreModifiers = "marqo__score_modifiers"
)

// Vespa document envelope keys.
const (
	vespaDocFields        = "fields"
	vespaDocMatchFeatures = "matchfeatures"
)

// Rank profiles.
const (
	RankProfileEmbeddingSimilarity          = "embedding_similarity"
	RankProfileEmbeddingSimilarityModifiers = "embedding_similarity_modifiers"
	RankProfileBM25                         = "bm25"
	RankProfileBM25Modifiers                = "bm25_modifiers"
)

// Summary classes.
const (
	SummaryAllNonVector = "all-non-vector-summary"
	SummaryAllVector    = "all-vector-summary"
)

// Query input names.
const (
	QueryInputEmbedding   = "embedding_query"
	QueryInputMultWeights = "marqo__mult_weights"
	QueryInputAddWeights  = "marqo__add_weights"
)

// exactSearchTimeout replaces the default query timeout when exact
// (non-approximate) nearest neighbor search is requested; exact search can
// run long and must not be truncated early.
const exactSearchTimeout = "300s"

// ignoredWireFields are backend diagnostics that carry no document content.
var ignoredWireFields = map[string]struct{}{
	"sddocname": {},
}
