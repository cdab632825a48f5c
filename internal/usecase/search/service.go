// Package search is the search use case: it turns free-text requests into
// typed domain queries, vectorizing tensor query text on the way, and
// delegates execution to the repository.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/sycomix/marqo/internal/domain"
	domsearch "github.com/sycomix/marqo/internal/domain/search"
	"github.com/sycomix/marqo/internal/domain/search/filter"
	"github.com/sycomix/marqo/internal/domain/search/result"
)

// Kind selects the search method.
type Kind string

// Search method constants.
const (
	KindTensor  Kind = "tensor"
	KindLexical Kind = "lexical"
	KindHybrid  Kind = "hybrid"
)

// Request is a free-text search request before compilation.
type Request struct {
	Kind  Kind
	Query string

	Limit  int
	Offset int
	// EFSearch bounds the HNSW search breadth; nil applies the configured default.
	EFSearch *int
	// Approximate toggles HNSW vs exact search; nil defaults to approximate.
	Approximate *bool

	SearchableAttributes []string
	AttributesToRetrieve []string
	Filter               filter.Node
	ScoreModifiers       []domsearch.ScoreModifier
	ExposeFacets         bool
}

// Limits are the configured request bounds and defaults.
type Limits struct {
	DefaultLimit    int
	MaxLimit        int
	DefaultEFSearch int
}

// Service handles document search across tensor and lexical methods.
type Service struct {
	repo    Repository
	indexes Indexes
	embed   Embedder
	limits  Limits
}

// New creates a search service.
func New(repo Repository, indexes Indexes, embed Embedder, limits Limits) *Service {
	return &Service{repo: repo, indexes: indexes, embed: embed, limits: limits}
}

// Search resolves the index, validates and defaults the request, builds the
// typed domain query and runs it.
func (s *Service) Search(ctx context.Context, indexName string, req Request) (result.Result, error) {
	idx, err := s.indexes.Get(indexName)
	if err != nil {
		return result.Result{}, fmt.Errorf("get index: %w", err)
	}

	common, err := s.buildCommon(req)
	if err != nil {
		return result.Result{}, err
	}

	var q domsearch.Query
	switch req.Kind {
	case KindTensor:
		q, err = s.buildTensorQuery(ctx, req, common)
	case KindLexical:
		q = s.buildLexicalQuery(req, common)
	case KindHybrid:
		q = &domsearch.HybridQuery{Common: common}
	default:
		return result.Result{}, fmt.Errorf("%w: unknown search method %q", domain.ErrInvalidRequest, req.Kind)
	}
	if err != nil {
		return result.Result{}, err
	}

	res, err := s.repo.Search(ctx, idx, q)
	if err != nil {
		return result.Result{}, err
	}
	return res, nil
}

// VectorCount reports the total number of stored vectors in an index.
func (s *Service) VectorCount(ctx context.Context, indexName string) (int, error) {
	idx, err := s.indexes.Get(indexName)
	if err != nil {
		return 0, fmt.Errorf("get index: %w", err)
	}
	return s.repo.VectorCount(ctx, idx)
}

func (s *Service) buildCommon(req Request) (domsearch.Common, error) {
	limit := req.Limit
	if limit == 0 {
		limit = s.limits.DefaultLimit
	}
	if limit < 0 {
		return domsearch.Common{}, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidRequest)
	}
	if limit > s.limits.MaxLimit {
		return domsearch.Common{}, fmt.Errorf("%w: limit %d exceeds maximum %d",
			domain.ErrInvalidRequest, limit, s.limits.MaxLimit)
	}
	if req.Offset < 0 {
		return domsearch.Common{}, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidRequest)
	}

	return domsearch.Common{
		Limit:                limit,
		Offset:               req.Offset,
		AttributesToRetrieve: req.AttributesToRetrieve,
		SearchableAttributes: req.SearchableAttributes,
		Filter:               req.Filter,
		ScoreModifiers:       req.ScoreModifiers,
		ExposeFacets:         req.ExposeFacets,
	}, nil
}

func (s *Service) buildTensorQuery(
	ctx context.Context, req Request, common domsearch.Common,
) (*domsearch.TensorQuery, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrInvalidRequest)
	}

	embResult, err := s.embed.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	efSearch := req.EFSearch
	if efSearch == nil {
		def := s.limits.DefaultEFSearch
		efSearch = &def
	}
	approximate := true
	if req.Approximate != nil {
		approximate = *req.Approximate
	}

	return &domsearch.TensorQuery{
		Common:      common,
		Vector:      embResult.Embedding,
		Approximate: approximate,
		EFSearch:    efSearch,
	}, nil
}

func (s *Service) buildLexicalQuery(req Request, common domsearch.Common) *domsearch.LexicalQuery {
	required, optional := domsearch.ParsePhrases(req.Query)
	return &domsearch.LexicalQuery{
		Common:     common,
		OrPhrases:  optional,
		AndPhrases: required,
	}
}
