package document

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/sycomix/marqo/internal/db/vespa"
	"github.com/sycomix/marqo/internal/domain/index"
)

type mockClient struct {
	feedFn   func(ctx context.Context, schema string, doc *vespa.Document) error
	getFn    func(ctx context.Context, schema, id string) (*vespa.Document, error)
	deleteFn func(ctx context.Context, schema, id string) error

	fed []*vespa.Document
}

func (m *mockClient) FeedDocument(ctx context.Context, schema string, doc *vespa.Document) error {
	m.fed = append(m.fed, doc)
	if m.feedFn != nil {
		return m.feedFn(ctx, schema, doc)
	}
	return nil
}

func (m *mockClient) GetDocument(ctx context.Context, schema, id string) (*vespa.Document, error) {
	return m.getFn(ctx, schema, id)
}

func (m *mockClient) DeleteDocument(ctx context.Context, schema, id string) error {
	return m.deleteFn(ctx, schema, id)
}

func testIndex(t *testing.T) *index.Index {
	t.Helper()

	idx, err := index.FromDef(index.SchemaDef{
		Name: "products",
		Fields: []index.FieldDef{
			{Name: "title", Type: "text", Features: []string{"lexical_search", "filter"}},
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
