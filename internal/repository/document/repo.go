// Package document persists domain documents through the backend document
// API, translating to and from the flat wire shape per index.
package document

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sycomix/marqo/internal/db/vespa"
	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/domain/document"
	"github.com/sycomix/marqo/internal/domain/index"
	"github.com/sycomix/marqo/internal/metrics"
	"github.com/sycomix/marqo/internal/vespaindex"
)

// client is the consumer interface for the backend document API (ISP).
type client interface {
	FeedDocument(ctx context.Context, schema string, doc *vespa.Document) error
	GetDocument(ctx context.Context, schema, id string) (*vespa.Document, error)
	DeleteDocument(ctx context.Context, schema, id string) error
}

// Repo implements document storage on top of the backend document API.
type Repo struct {
	client client
	logger *zap.Logger
}

// New creates a document repository.
func New(c client, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{client: c, logger: logger}
}

// Put upserts one document into an index. The document must carry an id.
func (r *Repo) Put(ctx context.Context, idx *index.Index, doc *document.Document) error {
	if doc == nil || doc.ID == "" {
		metrics.DocumentOperationsTotal.WithLabelValues(idx.Name(), "put", "invalid").Inc()
		return fmt.Errorf("%w: document id is required", domain.ErrInternal)
	}

	adapter := vespaindex.New(idx, r.logger)
	wire, err := adapter.ToVespaDocument(doc)
	if err != nil {
		metrics.DocumentOperationsTotal.WithLabelValues(idx.Name(), "put", "invalid").Inc()
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}

	if err := r.client.FeedDocument(ctx, idx.Name(), wire); err != nil {
		metrics.DocumentOperationsTotal.WithLabelValues(idx.Name(), "put", "error").Inc()
		return fmt.Errorf("feed document %s: %w", doc.ID, err)
	}
	metrics.DocumentOperationsTotal.WithLabelValues(idx.Name(), "put", "success").Inc()
	return nil
}

// Get fetches one document by id and decodes it back into the domain shape.
// Highlights are a search-time concern and are never attached here.
func (r *Repo) Get(ctx context.Context, idx *index.Index, id string) (*document.Document, error) {
	wire, err := r.client.GetDocument(ctx, idx.Name(), id)
	if err != nil {
		status := "error"
		if errors.Is(err, domain.ErrNotFound) {
			status = "not_found"
		}
		metrics.DocumentOperationsTotal.WithLabelValues(idx.Name(), "get", status).Inc()
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}

	adapter := vespaindex.New(idx, r.logger)
	doc, err := adapter.ToDocument(wire, false)
	if err != nil {
		metrics.DocumentOperationsTotal.WithLabelValues(idx.Name(), "get", "malformed").Inc()
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	metrics.DocumentOperationsTotal.WithLabelValues(idx.Name(), "get", "success").Inc()
	return doc, nil
}

// Delete removes one document by id.
func (r *Repo) Delete(ctx context.Context, idx *index.Index, id string) error {
	if err := r.client.DeleteDocument(ctx, idx.Name(), id); err != nil {
		metrics.DocumentOperationsTotal.WithLabelValues(idx.Name(), "delete", "error").Inc()
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	metrics.DocumentOperationsTotal.WithLabelValues(idx.Name(), "delete", "success").Inc()
	return nil
}
