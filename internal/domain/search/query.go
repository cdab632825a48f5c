// Package search defines the domain query model: a closed set of query kinds
// plus score modifiers and lexical phrase parsing.
package search

import "github.com/sycomix/marqo/internal/domain/search/filter"

// Common holds the attributes shared by every query kind.
type Common struct {
	Limit  int
	Offset int
	// AttributesToRetrieve restricts which fields come back; nil retrieves all.
	AttributesToRetrieve []string
	// SearchableAttributes restricts which fields are searched; nil uses the
	// kind-specific default (all tensor fields / all lexical fields).
	SearchableAttributes []string
	Filter               filter.Node
	ScoreModifiers       []ScoreModifier
	// ExposeFacets selects the raw-vector summary profile.
	ExposeFacets bool
}

func (c *Common) common() *Common { return c }

// Query is the closed union of query kinds: TensorQuery, LexicalQuery,
// HybridQuery. Compilers switch exhaustively over the concrete types.
type Query interface {
	common() *Common
}

// Base returns the shared attributes of any query kind.
func Base(q Query) *Common { return q.common() }

// TensorQuery is a nearest-neighbor search over tensor field embeddings.
type TensorQuery struct {
	Common
	Vector      []float32
	Approximate bool
	// EFSearch bounds the HNSW search breadth; nil leaves it at limit+offset.
	EFSearch *int
}

// LexicalQuery is a keyword search over lexically searchable fields.
type LexicalQuery struct {
	Common
	// OrPhrases combine best-effort (weakAnd); AndPhrases are strict.
	OrPhrases  []string
	AndPhrases []string
}

// HybridQuery combines tensor and lexical search. Compilation is not
// implemented and fails with domain.ErrNotSupported.
type HybridQuery struct {
	Common
}

// ScoreModifierType distinguishes multiplicative from additive modifiers.
type ScoreModifierType string

// Score modifier type constants.
const (
	ScoreModifierMultiply ScoreModifierType = "multiply"
	ScoreModifierAdd      ScoreModifierType = "add"
)

// ScoreModifier adjusts the ranking score by a weighted document field.
type ScoreModifier struct {
	Field  string
	Weight float64
	Type   ScoreModifierType
}
