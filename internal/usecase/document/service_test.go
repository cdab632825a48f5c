package document

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sycomix/marqo/internal/domain"
	domdoc "github.com/sycomix/marqo/internal/domain/document"
	"github.com/sycomix/marqo/internal/domain/index"
)

type mockRepo struct {
	putFn    func(ctx context.Context, idx *index.Index, doc *domdoc.Document) error
	getFn    func(ctx context.Context, idx *index.Index, id string) (*domdoc.Document, error)
	deleteFn func(ctx context.Context, idx *index.Index, id string) error
	put      []*domdoc.Document
}

func (m *mockRepo) Put(ctx context.Context, idx *index.Index, doc *domdoc.Document) error {
	m.put = append(m.put, doc)
	if m.putFn != nil {
		return m.putFn(ctx, idx, doc)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, idx *index.Index, id string) (*domdoc.Document, error) {
	return m.getFn(ctx, idx, id)
}

func (m *mockRepo) Delete(ctx context.Context, idx *index.Index, id string) error {
	return m.deleteFn(ctx, idx, id)
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
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
			{Name: "price", Type: "float", Features: []string{"filter"}},
		},
		TensorFields: []string{"title"},
	})
	if err != nil {
		t.Fatalf("build test index: %v", err)
	}
	return index.NewCatalog([]*index.Index{idx})
}

func TestUpsert_Vectorizes(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	svc := New(repo, testCatalog(t), embed)

	doc := &domdoc.Document{
		ID:     "doc1",
		Fields: map[string]any{"title": "red shoes", "price": 19.5},
	}
	if err := svc.Upsert(context.Background(), "products", doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if !reflect.DeepEqual(embed.texts, []string{"red shoes"}) {
		t.Errorf("embedded texts = %v, want [red shoes]", embed.texts)
	}
	if len(repo.put) != 1 {
		t.Fatalf("put %d documents, want 1", len(repo.put))
	}
	tensor, ok := repo.put[0].Tensors["title"]
	if !ok {
		t.Fatal("stored document has no title tensor")
	}
	if !reflect.DeepEqual(tensor.Chunks, []any{"red shoes"}) {
		t.Errorf("Chunks = %v, want [red shoes]", tensor.Chunks)
	}
	if !reflect.DeepEqual(tensor.Embeddings, [][]float32{{0.1, 0.2}}) {
		t.Errorf("Embeddings = %v, want [[0.1 0.2]]", tensor.Embeddings)
	}
}

func TestUpsert_KeepsPrecomputedTensors(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{}
	svc := New(repo, testCatalog(t), embed)

	precomputed := domdoc.Tensor{
		Chunks:     []any{"red", "shoes"},
		Embeddings: [][]float32{{1}, {2}},
	}
	doc := &domdoc.Document{
		ID:      "doc1",
		Fields:  map[string]any{"title": "red shoes"},
		Tensors: map[string]domdoc.Tensor{"title": precomputed},
	}
	if err := svc.Upsert(context.Background(), "products", doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if len(embed.texts) != 0 {
		t.Errorf("embedder called with %v, want no calls", embed.texts)
	}
	if !reflect.DeepEqual(repo.put[0].Tensors["title"], precomputed) {
		t.Error("precomputed tensor was replaced")
	}
}

func TestUpsert_Errors(t *testing.T) {
	tests := []struct {
		name    string
		index   string
		doc     *domdoc.Document
		wantErr error
	}{
		{
			name:    "unknown index",
			index:   "missing",
			doc:     &domdoc.Document{ID: "doc1"},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "missing id",
			index:   "products",
			doc:     &domdoc.Document{Fields: map[string]any{"title": "x"}},
			wantErr: domain.ErrInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			svc := New(repo, testCatalog(t), &mockEmbedder{})

			err := svc.Upsert(context.Background(), tt.index, tt.doc)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if len(repo.put) != 0 {
				t.Errorf("put %d documents, want 0", len(repo.put))
			}
		})
	}
}

func TestUpsert_EmbedderError(t *testing.T) {
	providerErr := errors.New("provider down")
	svc := New(&mockRepo{}, testCatalog(t), &mockEmbedder{err: providerErr})

	doc := &domdoc.Document{ID: "doc1", Fields: map[string]any{"title": "x"}}
	if err := svc.Upsert(context.Background(), "products", doc); !errors.Is(err, providerErr) {
		t.Errorf("err = %v, want wrapped provider error", err)
	}
}

func TestGet(t *testing.T) {
	want := &domdoc.Document{ID: "doc1", Fields: map[string]any{"title": "x"}}
	repo := &mockRepo{
		getFn: func(_ context.Context, idx *index.Index, id string) (*domdoc.Document, error) {
			if idx.Name() != "products" || id != "doc1" {
				t.Errorf("lookup = %s/%s, want products/doc1", idx.Name(), id)
			}
			return want, nil
		},
	}
	svc := New(repo, testCatalog(t), &mockEmbedder{})

	doc, err := svc.Get(context.Background(), "products", "doc1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc != want {
		t.Error("Get did not return the repository document")
	}
}

func TestDelete(t *testing.T) {
	var deleted string
	repo := &mockRepo{
		deleteFn: func(_ context.Context, idx *index.Index, id string) error {
			deleted = idx.Name() + "/" + id
			return nil
		},
	}
	svc := New(repo, testCatalog(t), &mockEmbedder{})

	if err := svc.Delete(context.Background(), "products", "doc1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != "products/doc1" {
		t.Errorf("deleted = %q, want products/doc1", deleted)
	}
}

func TestDelete_UnknownIndex(t *testing.T) {
	svc := New(&mockRepo{}, testCatalog(t), &mockEmbedder{})

	if err := svc.Delete(context.Background(), "missing", "doc1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
