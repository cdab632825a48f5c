package vespaindex

import (
	"testing"

	"github.com/sycomix/marqo/internal/domain/index"
)

// testIndex builds the structured index shared by the adapter tests:
// two tensor fields (title, description), a filter-only field, numeric
// score-modifier fields, a boolean, an array and a feature-less field.
func testIndex(t *testing.T) *index.Index {
	t.Helper()

	idx, err := index.FromDef(index.SchemaDef{
		Name: "products",
		Fields: []index.FieldDef{
			{Name: "title", Type: "text", Features: []string{"lexical_search", "filter"}},
			{Name: "description", Type: "text", Features: []string{"lexical_search"}},
			{Name: "category", Type: "text", Features: []string{"filter"}},
			{Name: "price", Type: "float", Features: []string{"filter", "score_modifier"}},
			{Name: "views", Type: "int", Features: []string{"score_modifier"}},
			{Name: "active", Type: "bool", Features: []string{"filter"}},
			{Name: "tags", Type: "array<text>", Features: []string{"filter"}},
			{Name: "notes", Type: "text"},
		},
		TensorFields: []string{"title", "description"},
	})
	if err != nil {
		t.Fatalf("build test index: %v", err)
	}
	return idx
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	return New(testIndex(t), nil)
}

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }
