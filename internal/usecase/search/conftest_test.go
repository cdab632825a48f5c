package search

import (
	"context"
	"testing"

	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/domain/index"
	domsearch "github.com/sycomix/marqo/internal/domain/search"
	"github.com/sycomix/marqo/internal/domain/search/result"
)

type mockRepo struct {
	searchFn func(ctx context.Context, idx *index.Index, q domsearch.Query) (result.Result, error)
	countFn  func(ctx context.Context, idx *index.Index) (int, error)
	queries  []domsearch.Query
}

func (m *mockRepo) Search(ctx context.Context, idx *index.Index, q domsearch.Query) (result.Result, error) {
	m.queries = append(m.queries, q)
	if m.searchFn != nil {
		return m.searchFn(ctx, idx, q)
	}
	return result.Result{}, nil
}

func (m *mockRepo) VectorCount(ctx context.Context, idx *index.Index) (int, error) {
	return m.countFn(ctx, idx)
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

func testCatalog(t *testing.T) *index.Catalog {
	t.Helper()

	idx, err := index.FromDef(index.SchemaDef{
		Name: "products",
		Fields: []index.FieldDef{
			{Name: "title", Type: "text", Features: []string{"lexical_search"}},
		},
		TensorFields: []string{"title"},
	})
	if err != nil {
		t.Fatalf("build test index: %v", err)
	}
	return index.NewCatalog([]*index.Index{idx})
}

func testLimits() Limits {
	return Limits{DefaultLimit: 20, MaxLimit: 100, DefaultEFSearch: 2000}
}

func newTestService(t *testing.T, repo *mockRepo, embed *mockEmbedder) *Service {
	t.Helper()
	return New(repo, testCatalog(t), embed, testLimits())
}
