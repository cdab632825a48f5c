package chi

import (
	"context"
	"net/http"
	"testing"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sycomix/marqo/internal/domain"
	domdoc "github.com/sycomix/marqo/internal/domain/document"
	"github.com/sycomix/marqo/internal/domain/index"
	domsearch "github.com/sycomix/marqo/internal/domain/search"
	"github.com/sycomix/marqo/internal/domain/search/result"
	documentuc "github.com/sycomix/marqo/internal/usecase/document"
	searchuc "github.com/sycomix/marqo/internal/usecase/search"
)

type stubSearchRepo struct {
	searchFn func(ctx context.Context, idx *index.Index, q domsearch.Query) (result.Result, error)
	countFn  func(ctx context.Context, idx *index.Index) (int, error)
}

func (s *stubSearchRepo) Search(ctx context.Context, idx *index.Index, q domsearch.Query) (result.Result, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, idx, q)
	}
	return result.Result{}, nil
}

func (s *stubSearchRepo) VectorCount(ctx context.Context, idx *index.Index) (int, error) {
	if s.countFn != nil {
		return s.countFn(ctx, idx)
	}
	return 0, nil
}

type stubDocRepo struct {
	putFn    func(ctx context.Context, idx *index.Index, doc *domdoc.Document) error
	getFn    func(ctx context.Context, idx *index.Index, id string) (*domdoc.Document, error)
	deleteFn func(ctx context.Context, idx *index.Index, id string) error
	put      []*domdoc.Document
}

func (s *stubDocRepo) Put(ctx context.Context, idx *index.Index, doc *domdoc.Document) error {
	s.put = append(s.put, doc)
	if s.putFn != nil {
		return s.putFn(ctx, idx, doc)
	}
	return nil
}

func (s *stubDocRepo) Get(ctx context.Context, idx *index.Index, id string) (*domdoc.Document, error) {
	if s.getFn != nil {
		return s.getFn(ctx, idx, id)
	}
	return &domdoc.Document{ID: id}, nil
}

func (s *stubDocRepo) Delete(ctx context.Context, idx *index.Index, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, idx, id)
	}
	return nil
}

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vector}, nil
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(_ context.Context) error { return s.err }

func testCatalog(t *testing.T) *index.Catalog {
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
	return index.NewCatalog([]*index.Index{idx})
}

func newTestHandler(t *testing.T, searchRepo *stubSearchRepo, docRepo *stubDocRepo, checks map[string]Pinger) http.Handler {
	t.Helper()

	catalog := testCatalog(t)
	embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
	limits := searchuc.Limits{DefaultLimit: 20, MaxLimit: 100, DefaultEFSearch: 2000}

	searchSvc := searchuc.New(searchRepo, catalog, embedder, limits)
	docSvc := documentuc.New(docRepo, catalog, embedder)

	server := NewServer(searchSvc, docSvc, checks, zap.NewNop())
	r := gochi.NewRouter()
	server.Routes(r)
	return r
}
