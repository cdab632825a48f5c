package vespaindex

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/domain/document"
	"github.com/sycomix/marqo/internal/domain/index"
)

// ExtractHighlights selects the best-matching tensor field and chunk from
// one result row's match features. Every searched tensor field reports a
// closest(<embeddings field>) cell set paired with a distance; the field with
// the globally minimum distance wins, ties keeping the first field in
// schema-declared order.
func (a *Adapter) ExtractHighlights(wireFields map[string]any) ([]document.Highlight, error) {
	raw, ok := wireFields[vespaDocMatchFeatures]
	if !ok {
		return nil, fmt.Errorf("%w: document has no %s", domain.ErrMalformedVespaDocument, vespaDocMatchFeatures)
	}
	matchFeatures, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an object", domain.ErrMalformedVespaDocument, vespaDocMatchFeatures)
	}

	var (
		winner      index.TensorField
		winnerCells map[string]any
		minDistance float64
		found       bool
	)

	for _, tf := range a.index.TensorFields() {
		closestKey := fmt.Sprintf("closest(%s)", tf.EmbeddingsFieldName())
		closest, ok := matchFeatures[closestKey]
		if !ok {
			continue
		}
		cells, err := closestCells(closestKey, closest)
		if err != nil {
			return nil, err
		}
		if len(cells) == 0 {
			// field was not searched
			continue
		}

		distanceKey := fmt.Sprintf("distance(field,%s)", tf.EmbeddingsFieldName())
		rawDistance, ok := matchFeatures[distanceKey]
		if !ok {
			return nil, fmt.Errorf("%w: expected %s in match features but it was not found",
				domain.ErrMalformedVespaDocument, distanceKey)
		}
		distance, ok := rawDistance.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: non-numeric distance %v for %s",
				domain.ErrMalformedVespaDocument, rawDistance, distanceKey)
		}

		if !found || distance < minDistance {
			found = true
			minDistance = distance
			winner = tf
			winnerCells = cells
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: could not find closest tensor field in match features",
			domain.ErrMalformedVespaDocument)
	}

	cellKeys := sortedKeys(winnerCells)
	chunkIndex, err := strconv.Atoi(cellKeys[0])
	if err != nil || chunkIndex < 0 {
		return nil, fmt.Errorf("%w: expected chunk index but found %q",
			domain.ErrMalformedVespaDocument, cellKeys[0])
	}

	rawChunks, ok := wireFields[winner.ChunkFieldName()]
	if !ok {
		// Expected when attributes_to_retrieve excludes the searched tensor
		// fields; the highlight is simply unavailable, not an error.
		a.logger.Warn("document is missing chunk field, returning empty highlights",
			zap.String("index", a.index.Name()),
			zap.String("chunk_field", winner.ChunkFieldName()),
		)
		return []document.Highlight{}, nil
	}

	chunks, err := toChunkList(winner.ChunkFieldName(), rawChunks)
	if err != nil {
		return nil, err
	}
	if chunkIndex >= len(chunks) {
		return nil, fmt.Errorf("%w: chunk index %d out of range for field %s with %d chunks",
			domain.ErrMalformedVespaDocument, chunkIndex, winner.ChunkFieldName(), len(chunks))
	}

	chunk := chunkString(chunks[chunkIndex])
	if chunk == "" {
		return []document.Highlight{}, nil
	}
	return []document.Highlight{{Field: winner.Name(), Chunk: chunk}}, nil
}

func closestCells(feature string, value any) (map[string]any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an object", domain.ErrMalformedVespaDocument, feature)
	}
	rawCells, ok := obj["cells"]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no cells", domain.ErrMalformedVespaDocument, feature)
	}
	cells, ok := rawCells.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s cells is not an object", domain.ErrMalformedVespaDocument, feature)
	}
	return cells, nil
}
