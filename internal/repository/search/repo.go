// Package search runs compiled queries against the backend and converts the
// response rows back into domain results.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sycomix/marqo/internal/db/vespa"
	"github.com/sycomix/marqo/internal/domain/index"
	"github.com/sycomix/marqo/internal/domain/search"
	"github.com/sycomix/marqo/internal/domain/search/result"
	"github.com/sycomix/marqo/internal/metrics"
	"github.com/sycomix/marqo/internal/vespaindex"
)

// client is the consumer interface for the backend query API (ISP).
type client interface {
	Search(ctx context.Context, req vespa.SearchRequest) (*vespa.SearchResponse, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	client client
	logger *zap.Logger
}

// New creates a search repository.
func New(c client, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{client: c, logger: logger}
}

// Search compiles and runs a query against one index, converting each result
// row back into a domain document with its relevance score and highlights.
func (r *Repo) Search(ctx context.Context, idx *index.Index, q search.Query) (result.Result, error) {
	adapter := vespaindex.New(idx, r.logger)
	kind := queryKind(q)

	req, err := adapter.ToVespaQuery(q)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(idx.Name(), kind, "compile_error").Inc()
		return result.Result{}, fmt.Errorf("compile query for %s: %w", idx.Name(), err)
	}

	start := time.Now()
	resp, err := r.client.Search(ctx, req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(idx.Name(), kind, "error").Inc()
		return result.Result{}, fmt.Errorf("search %s: %w", idx.Name(), err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(idx.Name(), kind, "success").Inc()
	metrics.SearchRequestDuration.WithLabelValues(idx.Name(), kind).Observe(time.Since(start).Seconds())

	hits := make([]result.Hit, 0, len(resp.Root.Children))
	for _, hit := range resp.Root.Children {
		doc, err := adapter.ToDocument(&vespa.Document{Fields: hit.Fields}, true)
		if err != nil {
			return result.Result{}, fmt.Errorf("parse result row: %w", err)
		}
		hits = append(hits, result.Hit{Document: doc, Score: hit.Relevance})
	}

	return result.Result{Hits: hits, Total: resp.Root.Fields.TotalCount}, nil
}

// VectorCount sums the stored vector counts across the index via the grouping
// aggregation query.
func (r *Repo) VectorCount(ctx context.Context, idx *index.Index) (int, error) {
	adapter := vespaindex.New(idx, r.logger)

	resp, err := r.client.Search(ctx, adapter.VectorCountQuery())
	if err != nil {
		return 0, fmt.Errorf("vector count %s: %w", idx.Name(), err)
	}

	sumField := fmt.Sprintf("sum(%s)", vespaindex.FieldVectorCount)
	if sum, ok := findGroupValue(resp.Root.Children, sumField); ok {
		return int(sum), nil
	}

	// an index with no documents produces no group output
	return 0, nil
}

// findGroupValue walks nested grouping hits looking for a numeric field.
func findGroupValue(hits []vespa.Hit, field string) (float64, bool) {
	for _, hit := range hits {
		if raw, ok := hit.Fields[field]; ok {
			if n, ok := raw.(float64); ok {
				return n, true
			}
		}
		if n, ok := findGroupValue(hit.Children, field); ok {
			return n, true
		}
	}
	return 0, false
}

func queryKind(q search.Query) string {
	switch q.(type) {
	case *search.TensorQuery:
		return "tensor"
	case *search.LexicalQuery:
		return "lexical"
	case *search.HybridQuery:
		return "hybrid"
	}
	return "unknown"
}
