package vespaindex

import (
	"go.uber.org/zap"

	"github.com/sycomix/marqo/internal/domain/index"
)

// Adapter translates documents and queries for one structured index. It
// borrows the schema view read-only and is safe for concurrent use.
type Adapter struct {
	index  *index.Index
	logger *zap.Logger
}

// New creates an adapter for the given index.
func New(idx *index.Index, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{index: idx, logger: logger}
}

// Index returns the schema view the adapter translates for.
func (a *Adapter) Index() *index.Index { return a.index }
