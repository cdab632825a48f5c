package search

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/sycomix/marqo/internal/db/vespa"
	"github.com/sycomix/marqo/internal/domain/index"
)

type mockClient struct {
	searchFn func(ctx context.Context, req vespa.SearchRequest) (*vespa.SearchResponse, error)
	requests []vespa.SearchRequest
}

func (m *mockClient) Search(ctx context.Context, req vespa.SearchRequest) (*vespa.SearchResponse, error) {
	m.requests = append(m.requests, req)
	return m.searchFn(ctx, req)
}

// testIndex builds a small structured index with one tensor field and one
// filterable numeric field.
func testIndex(t *testing.T) *index.Index {
	t.Helper()

	idx, err := index.FromDef(index.SchemaDef{
		Name: "products",
		Fields: []index.FieldDef{
			{Name: "title", Type: "text", Features: []string{"lexical_search"}},
			{Name: "price", Type: "float", Features: []string{"filter"}},
		},
		TensorFields: []string{"title"},
	})
	if err != nil {
		t.Fatalf("build test index: %v", err)
	}
	return idx
}

func newTestRepo(t *testing.T, mc *mockClient) *Repo {
	t.Helper()
	return New(mc, zap.NewNop())
}
