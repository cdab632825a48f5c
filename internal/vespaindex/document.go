package vespaindex

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/sycomix/marqo/internal/db/vespa"
	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/domain/document"
	"github.com/sycomix/marqo/internal/domain/index"
)

// ToVespaDocument converts a domain document into the backend's flat wire
// document. Booleans are re-encoded as 0/1, values are routed into their
// lexical and/or filter storage copies, tensor chunks become ordered string
// lists and embeddings a sparse index-keyed map. Score-modifier-eligible
// values are staged into a side map emitted only when non-empty.
func (a *Adapter) ToVespaDocument(doc *document.Document) (*vespa.Document, error) {
	fields := make(map[string]any, len(doc.Fields)+2*len(doc.Tensors)+2)
	scoreModifiers := make(map[string]any)

	if doc.ID != "" {
		fields[FieldID] = doc.ID
	}

	// Field names are walked in sorted order so identical inputs always fail
	// on the same field first.
	for _, name := range sortedKeys(doc.Fields) {
		value := doc.Fields[name]

		f, ok := a.index.Field(name)
		if !ok {
			return nil, domain.NewUnknownField(a.index.Name(), name, "", a.index.FieldNames())
		}
		if err := verifyFieldType(f, value); err != nil {
			return nil, err
		}

		if f.Type() == index.TypeBool {
			// Booleans are stored as bytes in Vespa
			if value.(bool) {
				value = 1
			} else {
				value = 0
			}
		}

		stored := false
		if n := f.LexicalFieldName(); n != "" {
			fields[n] = value
			stored = true
		}
		if n := f.FilterFieldName(); n != "" {
			fields[n] = value
			stored = true
		}
		if !stored {
			fields[name] = value
		}

		if f.HasFeature(index.FeatureScoreModifier) {
			scoreModifiers[name] = value
		}
	}

	vectorCount := 0
	for _, name := range sortedKeys(doc.Tensors) {
		tensor := doc.Tensors[name]

		tf, ok := a.index.TensorField(name)
		if !ok {
			return nil, domain.NewUnknownField(a.index.Name(), name, "tensor", a.index.TensorFieldNames())
		}
		if tensor.Chunks == nil || tensor.Embeddings == nil {
			return nil, fmt.Errorf("%w: tensor field %q must carry both chunks and embeddings",
				domain.ErrInvalidShape, name)
		}

		chunks := make([]string, len(tensor.Chunks))
		for i, c := range tensor.Chunks {
			chunks[i] = chunkString(c)
		}
		embeddings := make(map[string][]float32, len(tensor.Embeddings))
		for i, emb := range tensor.Embeddings {
			embeddings[strconv.Itoa(i)] = emb
		}
		vectorCount += len(tensor.Embeddings)

		fields[tf.ChunkFieldName()] = chunks
		fields[tf.EmbeddingsFieldName()] = embeddings
	}

	fields[FieldVectorCount] = vectorCount
	if len(scoreModifiers) > 0 {
		fields[FieldScoreModifiers] = scoreModifiers
	}

	return &vespa.Document{ID: doc.ID, Fields: fields}, nil
}

// ToDocument converts a backend wire document back into a domain document.
// Unknown physical field names are rejected rather than skipped: schema drift
// must not be silently swallowed. When a field is stored as both a lexical
// and a filter copy the two decoded values must agree.
func (a *Adapter) ToDocument(wire *vespa.Document, includeHighlights bool) (*document.Document, error) {
	if wire == nil || wire.Fields == nil {
		return nil, fmt.Errorf("%w: document is missing %s", domain.ErrMalformedVespaDocument, vespaDocFields)
	}

	doc := &document.Document{Fields: make(map[string]any)}
	tensors := make(map[string]document.Tensor)

	for _, name := range sortedKeys(wire.Fields) {
		value := wire.Fields[name]

		if f, ok := a.index.ResolveField(name); ok {
			decoded := value
			if f.Type() == index.TypeBool {
				b, err := decodeWireBool(f.Name(), value)
				if err != nil {
					return nil, err
				}
				decoded = b
			}

			if prev, seen := doc.Fields[f.Name()]; seen {
				// lexical and filter copies of one field must agree
				if !reflect.DeepEqual(prev, decoded) {
					return nil, fmt.Errorf("%w: field %q has different values %v and %v",
						domain.ErrMalformedVespaDocument, f.Name(), prev, decoded)
				}
			} else {
				doc.Fields[f.Name()] = decoded
			}
			continue
		}

		if tf, ok := a.index.ResolveTensorSubfield(name); ok {
			tensor := tensors[tf.Name()]
			switch name {
			case tf.ChunkFieldName():
				chunks, err := toChunkList(name, value)
				if err != nil {
					return nil, err
				}
				tensor.Chunks = chunks
			case tf.EmbeddingsFieldName():
				embeddings, err := parseEmbeddings(name, value)
				if err != nil {
					return nil, err
				}
				tensor.Embeddings = embeddings
			}
			tensors[tf.Name()] = tensor
			continue
		}

		switch {
		case name == FieldID:
			id, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string document id %v", domain.ErrMalformedVespaDocument, value)
			}
			doc.ID = id
		case name == vespaDocMatchFeatures:
			// handled below when highlights are requested
		case name == FieldVectorCount || name == FieldScoreModifiers:
		default:
			if _, ignore := ignoredWireFields[name]; !ignore {
				return nil, fmt.Errorf("%w: unknown field %q for index %s",
					domain.ErrMalformedVespaDocument, name, a.index.Name())
			}
		}
	}

	if len(tensors) > 0 {
		doc.Tensors = tensors
	}

	if includeHighlights {
		if _, ok := wire.Fields[vespaDocMatchFeatures]; ok {
			highlights, err := a.ExtractHighlights(wire.Fields)
			if err != nil {
				return nil, err
			}
			doc.Highlights = highlights
		}
	}

	return doc, nil
}

// decodeWireBool decodes the 0/1 wire encoding of a boolean field.
func decodeWireBool(field string, value any) (bool, error) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	default:
		return false, boolDecodeError(field, value)
	}

	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, boolDecodeError(field, value)
}

func boolDecodeError(field string, value any) error {
	return fmt.Errorf("%w: invalid value %v for boolean field %q, expected 0 or 1",
		domain.ErrMalformedVespaDocument, value, field)
}

// toChunkList normalizes a wire chunk list into the domain representation.
func toChunkList(field string, value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case []string:
		chunks := make([]any, len(v))
		for i, s := range v {
			chunks[i] = s
		}
		return chunks, nil
	}
	return nil, fmt.Errorf("%w: cannot parse chunk field %s with value %v",
		domain.ErrMalformedVespaDocument, field, value)
}

// parseEmbeddings flattens a sparse index-keyed embedding map into an ordered
// vector list by ascending index. The backend wraps the map in a "blocks"
// envelope; a freshly marshaled document carries the bare map.
func parseEmbeddings(field string, value any) ([][]float32, error) {
	malformed := func() error {
		return fmt.Errorf("%w: cannot parse embeddings field %s with value %v",
			domain.ErrMalformedVespaDocument, field, value)
	}

	var sparse map[string]any
	switch v := value.(type) {
	case map[string][]float32:
		sparse = make(map[string]any, len(v))
		for k, emb := range v {
			sparse[k] = emb
		}
	case map[string]any:
		sparse = v
		if blocks, ok := v["blocks"]; ok {
			inner, ok := blocks.(map[string]any)
			if !ok {
				return nil, malformed()
			}
			sparse = inner
		}
	default:
		return nil, malformed()
	}

	indices := make([]int, 0, len(sparse))
	byIndex := make(map[int][]float32, len(sparse))
	for key, raw := range sparse {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 {
			return nil, malformed()
		}
		vec, err := toVector(raw)
		if err != nil {
			return nil, malformed()
		}
		indices = append(indices, i)
		byIndex[i] = vec
	}
	sort.Ints(indices)

	embeddings := make([][]float32, 0, len(indices))
	for _, i := range indices {
		embeddings = append(embeddings, byIndex[i])
	}
	return embeddings, nil
}

func toVector(value any) ([]float32, error) {
	switch v := value.(type) {
	case []float32:
		return v, nil
	case []any:
		vec := make([]float32, len(v))
		for i, raw := range v {
			n, ok := raw.(float64)
			if !ok {
				return nil, fmt.Errorf("non-numeric vector component %v", raw)
			}
			vec[i] = float32(n)
		}
		return vec, nil
	}
	return nil, fmt.Errorf("unexpected vector value %v", value)
}

// chunkString stringifies chunk content; image chunking can produce
// non-string markers.
func chunkString(c any) string {
	if s, ok := c.(string); ok {
		return s
	}
	return fmt.Sprint(c)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
