// Package document is the document use case: upserting with automatic
// vectorization of tensor field text, plus retrieval and deletion.
package document

import (
	"context"
	"fmt"

	"github.com/sycomix/marqo/internal/domain"
	domdoc "github.com/sycomix/marqo/internal/domain/document"
)

// Service handles document CRUD with automatic vectorization.
type Service struct {
	repo     Repository
	indexes  Indexes
	embedder Embedder
}

// New creates a document service.
func New(repo Repository, indexes Indexes, embedder Embedder) *Service {
	return &Service{repo: repo, indexes: indexes, embedder: embedder}
}

// Upsert stores one document. Tensor fields that carry string content but no
// precomputed tensor section are vectorized as a single chunk before storage.
func (s *Service) Upsert(ctx context.Context, indexName string, doc *domdoc.Document) error {
	idx, err := s.indexes.Get(indexName)
	if err != nil {
		return fmt.Errorf("get index: %w", err)
	}
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidRequest)
	}

	for _, tf := range idx.TensorFields() {
		if _, ok := doc.Tensors[tf.Name()]; ok {
			continue
		}
		text, ok := doc.Fields[tf.Name()].(string)
		if !ok || text == "" {
			continue
		}

		embResult, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("vectorize field %s: %w", tf.Name(), err)
		}
		if doc.Tensors == nil {
			doc.Tensors = make(map[string]domdoc.Tensor)
		}
		doc.Tensors[tf.Name()] = domdoc.Tensor{
			Chunks:     []any{text},
			Embeddings: [][]float32{embResult.Embedding},
		}
	}

	if err := s.repo.Put(ctx, idx, doc); err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// Get retrieves a document by index and id.
func (s *Service) Get(ctx context.Context, indexName, id string) (*domdoc.Document, error) {
	idx, err := s.indexes.Get(indexName)
	if err != nil {
		return nil, fmt.Errorf("get index: %w", err)
	}
	doc, err := s.repo.Get(ctx, idx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Delete removes a document by index and id.
func (s *Service) Delete(ctx context.Context, indexName, id string) error {
	idx, err := s.indexes.Get(indexName)
	if err != nil {
		return fmt.Errorf("get index: %w", err)
	}
	if err := s.repo.Delete(ctx, idx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
