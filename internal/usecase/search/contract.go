package search

import (
	"context"

	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/domain/index"
	domsearch "github.com/sycomix/marqo/internal/domain/search"
	"github.com/sycomix/marqo/internal/domain/search/result"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Search(ctx context.Context, idx *index.Index, q domsearch.Query) (result.Result, error)
	VectorCount(ctx context.Context, idx *index.Index) (int, error)
}

// Indexes resolves index names to loaded schemas.
type Indexes interface {
	Get(name string) (*index.Index, error)
}

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
