package document

import (
	"context"

	"github.com/sycomix/marqo/internal/domain"
	domdoc "github.com/sycomix/marqo/internal/domain/document"
	"github.com/sycomix/marqo/internal/domain/index"
)

// Repository defines the storage contract for document operations.
type Repository interface {
	Put(ctx context.Context, idx *index.Index, doc *domdoc.Document) error
	Get(ctx context.Context, idx *index.Index, id string) (*domdoc.Document, error)
	Delete(ctx context.Context, idx *index.Index, id string) error
}

// Indexes resolves index names to loaded schemas.
type Indexes interface {
	Get(name string) (*index.Index, error)
}

// Embedder vectorizes document text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
