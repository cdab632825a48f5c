package vespaindex

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/domain/search"
	"github.com/sycomix/marqo/internal/domain/search/filter"
)

func TestToVespaQuery_Tensor(t *testing.T) {
	a := newTestAdapter(t)

	q := &search.TensorQuery{
		Common:      search.Common{Limit: 10, Offset: 5},
		Vector:      []float32{0.1, 0.2},
		Approximate: true,
		EFSearch:    intPtr(20),
	}

	req, err := a.ToVespaQuery(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	yql := req["yql"].(string)
	if !strings.HasPrefix(yql, "select * from products where ") {
		t.Errorf("yql = %s", yql)
	}
	// limit+offset=15 is below efSearch=20, so 15 hits are targeted and the
	// remaining 5 widen the exploration
	for _, tf := range []string{"marqo__embeddings_title", "marqo__embeddings_description"} {
		clause := "({targetHits:15, approximate:true, hnsw.exploreAdditionalHits:5}nearestNeighbor(" + tf + ", " + QueryInputEmbedding + "))"
		if !strings.Contains(yql, clause) {
			t.Errorf("yql missing clause %s, got %s", clause, yql)
		}
	}
	if !strings.Contains(yql, " OR ") {
		t.Errorf("tensor clauses must be OR-combined, got %s", yql)
	}

	if got := req["model_restrict"]; got != "products" {
		t.Errorf("model_restrict = %v", got)
	}
	if got := req["hits"]; got != 10 {
		t.Errorf("hits = %v", got)
	}
	if got := req["offset"]; got != 5 {
		t.Errorf("offset = %v", got)
	}
	if got := req["ranking"]; got != RankProfileEmbeddingSimilarity {
		t.Errorf("ranking = %v", got)
	}
	if got := req["presentation.summary"]; got != SummaryAllNonVector {
		t.Errorf("presentation.summary = %v", got)
	}
	if _, ok := req["timeout"]; ok {
		t.Error("approximate search must not override the timeout")
	}

	features := req["query_features"].(map[string]any)
	if !reflect.DeepEqual(features[QueryInputEmbedding], []float32{0.1, 0.2}) {
		t.Errorf("embedding input = %v", features[QueryInputEmbedding])
	}
	if features["title"] != 1 || features["description"] != 1 {
		t.Errorf("searched field flags = %v", features)
	}
}

func TestToVespaQuery_TensorBreadth(t *testing.T) {
	a := newTestAdapter(t)

	tests := []struct {
		name           string
		limit, offset  int
		efSearch       *int
		wantTarget     string
		wantAdditional string
	}{
		{"ef above window", 10, 5, intPtr(20), "targetHits:15", "exploreAdditionalHits:5"},
		{"ef below window", 10, 5, intPtr(8), "targetHits:8", "exploreAdditionalHits:0"},
		{"ef omitted", 10, 5, nil, "targetHits:15", "exploreAdditionalHits:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := a.ToVespaQuery(&search.TensorQuery{
				Common:      search.Common{Limit: tt.limit, Offset: tt.offset},
				Vector:      []float32{1},
				Approximate: true,
				EFSearch:    tt.efSearch,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			yql := req["yql"].(string)
			if !strings.Contains(yql, tt.wantTarget) {
				t.Errorf("yql missing %s: %s", tt.wantTarget, yql)
			}
			if !strings.Contains(yql, tt.wantAdditional) {
				t.Errorf("yql missing %s: %s", tt.wantAdditional, yql)
			}
		})
	}
}

func TestToVespaQuery_ExactSearch(t *testing.T) {
	a := newTestAdapter(t)

	req, err := a.ToVespaQuery(&search.TensorQuery{
		Common: search.Common{Limit: 10},
		Vector: []float32{1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := req["ranking.softtimeout.enable"]; got != false {
		t.Errorf("ranking.softtimeout.enable = %v, want false", got)
	}
	if got := req["timeout"]; got != exactSearchTimeout {
		t.Errorf("timeout = %v, want %s", got, exactSearchTimeout)
	}
	if !strings.Contains(req["yql"].(string), "approximate:false") {
		t.Errorf("yql = %s", req["yql"])
	}
}

func TestToVespaQuery_TensorSearchableAttributes(t *testing.T) {
	a := newTestAdapter(t)

	req, err := a.ToVespaQuery(&search.TensorQuery{
		Common:      search.Common{Limit: 10, SearchableAttributes: []string{"description"}},
		Vector:      []float32{1},
		Approximate: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	yql := req["yql"].(string)
	if strings.Contains(yql, "marqo__embeddings_title") {
		t.Errorf("title must not be searched: %s", yql)
	}
	if !strings.Contains(yql, "marqo__embeddings_description") {
		t.Errorf("description must be searched: %s", yql)
	}

	t.Run("empty list yields unconditional false", func(t *testing.T) {
		req, err := a.ToVespaQuery(&search.TensorQuery{
			Common:      search.Common{Limit: 10, SearchableAttributes: []string{}},
			Vector:      []float32{1},
			Approximate: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(req["yql"].(string), "where false") {
			t.Errorf("yql = %s", req["yql"])
		}
	})

	t.Run("non-tensor attribute", func(t *testing.T) {
		_, err := a.ToVespaQuery(&search.TensorQuery{
			Common:      search.Common{Limit: 10, SearchableAttributes: []string{"category"}},
			Vector:      []float32{1},
			Approximate: true,
		})
		if !errors.Is(err, domain.ErrUnknownField) {
			t.Fatalf("error = %v, want ErrUnknownField", err)
		}
	})
}

func TestToVespaQuery_RetrieveAttributes(t *testing.T) {
	a := newTestAdapter(t)

	requested := []string{"title", "price"}
	req, err := a.ToVespaQuery(&search.TensorQuery{
		Common:      search.Common{Limit: 10, AttributesToRetrieve: requested},
		Vector:      []float32{1},
		Approximate: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	yql := req["yql"].(string)
	want := "select title, price, " + FieldID + ", marqo__chunks_title from products"
	if !strings.HasPrefix(yql, want) {
		t.Errorf("yql = %s, want prefix %s", yql, want)
	}
	if !reflect.DeepEqual(requested, []string{"title", "price"}) {
		t.Error("input attribute list must not be mutated")
	}

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := a.ToVespaQuery(&search.TensorQuery{
			Common:      search.Common{Limit: 10, AttributesToRetrieve: []string{"bogus"}},
			Vector:      []float32{1},
			Approximate: true,
		})
		if !errors.Is(err, domain.ErrUnknownField) {
			t.Fatalf("error = %v, want ErrUnknownField", err)
		}
	})
}

func TestToVespaQuery_ScoreModifiers(t *testing.T) {
	a := newTestAdapter(t)

	q := &search.TensorQuery{
		Common: search.Common{
			Limit: 10,
			ScoreModifiers: []search.ScoreModifier{
				{Field: "price", Weight: 2, Type: search.ScoreModifierMultiply},
				{Field: "views", Weight: 0.5, Type: search.ScoreModifierAdd},
			},
		},
		Vector:      []float32{1},
		Approximate: true,
	}

	req, err := a.ToVespaQuery(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := req["ranking"]; got != RankProfileEmbeddingSimilarityModifiers {
		t.Errorf("ranking = %v", got)
	}

	features := req["query_features"].(map[string]any)
	if !reflect.DeepEqual(features[QueryInputMultWeights], map[string]float64{"price": 2}) {
		t.Errorf("mult weights = %v", features[QueryInputMultWeights])
	}
	if !reflect.DeepEqual(features[QueryInputAddWeights], map[string]float64{"views": 0.5}) {
		t.Errorf("add weights = %v", features[QueryInputAddWeights])
	}

	t.Run("ineligible field", func(t *testing.T) {
		_, err := a.ToVespaQuery(&search.TensorQuery{
			Common: search.Common{
				Limit:          10,
				ScoreModifiers: []search.ScoreModifier{{Field: "category", Weight: 1, Type: search.ScoreModifierAdd}},
			},
			Vector:      []float32{1},
			Approximate: true,
		})
		if !errors.Is(err, domain.ErrUnknownField) {
			t.Fatalf("error = %v, want ErrUnknownField", err)
		}
		if !strings.Contains(err.Error(), "score modifier") {
			t.Errorf("error should name the score modifier role, got %q", err)
		}
	})
}

func TestToVespaQuery_Lexical(t *testing.T) {
	a := newTestAdapter(t)

	req, err := a.ToVespaQuery(&search.LexicalQuery{
		Common:     search.Common{Limit: 10},
		OrPhrases:  []string{"cat", "dog"},
		AndPhrases: []string{"fast"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	yql := req["yql"].(string)
	want := `weakAnd(default contains "cat", default contains "dog") AND (default contains "fast")`
	if !strings.Contains(yql, want) {
		t.Errorf("yql = %s, want to contain %s", yql, want)
	}
	if got := req["ranking"]; got != RankProfileBM25 {
		t.Errorf("ranking = %v", got)
	}

	features := req["query_features"].(map[string]any)
	if features["title"] != 1 || features["description"] != 1 {
		t.Errorf("searched field flags = %v", features)
	}
}

func TestToVespaQuery_LexicalSearchableAttributes(t *testing.T) {
	a := newTestAdapter(t)

	req, err := a.ToVespaQuery(&search.LexicalQuery{
		Common:    search.Common{Limit: 10, SearchableAttributes: []string{"title"}},
		OrPhrases: []string{"cat"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(req["yql"].(string), `marqo__lexical_title contains "cat"`) {
		t.Errorf("yql = %s", req["yql"])
	}

	t.Run("non-lexical attribute", func(t *testing.T) {
		_, err := a.ToVespaQuery(&search.LexicalQuery{
			Common:    search.Common{Limit: 10, SearchableAttributes: []string{"category"}},
			OrPhrases: []string{"cat"},
		})
		if !errors.Is(err, domain.ErrUnknownField) {
			t.Fatalf("error = %v, want ErrUnknownField", err)
		}
		if !strings.Contains(err.Error(), "lexically searchable") {
			t.Errorf("error should name the lexical role, got %q", err)
		}
	})

	t.Run("no phrases yields unconditional false", func(t *testing.T) {
		req, err := a.ToVespaQuery(&search.LexicalQuery{
			Common: search.Common{Limit: 10},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(req["yql"].(string), "where false") {
			t.Errorf("yql = %s", req["yql"])
		}
	})
}

func TestToVespaQuery_FilterAppended(t *testing.T) {
	a := newTestAdapter(t)

	req, err := a.ToVespaQuery(&search.LexicalQuery{
		Common: search.Common{
			Limit:  10,
			Filter: filter.EqualityTerm{Field: "category", Value: "books"},
		},
		OrPhrases: []string{"cat"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(req["yql"].(string), ` AND marqo__filter_category contains "books"`) {
		t.Errorf("yql = %s", req["yql"])
	}
}

func TestToVespaQuery_FacetsSummary(t *testing.T) {
	a := newTestAdapter(t)

	req, err := a.ToVespaQuery(&search.TensorQuery{
		Common:      search.Common{Limit: 10, ExposeFacets: true},
		Vector:      []float32{1},
		Approximate: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := req["presentation.summary"]; got != SummaryAllVector {
		t.Errorf("presentation.summary = %v", got)
	}
}

func TestToVespaQuery_Hybrid(t *testing.T) {
	a := newTestAdapter(t)

	_, err := a.ToVespaQuery(&search.HybridQuery{Common: search.Common{Limit: 10}})
	if !errors.Is(err, domain.ErrNotSupported) {
		t.Fatalf("error = %v, want ErrNotSupported", err)
	}
}

func TestVectorCountQuery(t *testing.T) {
	a := newTestAdapter(t)

	req := a.VectorCountQuery()
	wantYQL := "select marqo__vector_count from products where true limit 0 | all(group(1) each(output(sum(marqo__vector_count))))"
	if got := req["yql"]; got != wantYQL {
		t.Errorf("yql = %v, want %s", got, wantYQL)
	}
	if got := req["model_restrict"]; got != "products" {
		t.Errorf("model_restrict = %v", got)
	}
}
