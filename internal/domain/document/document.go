// Package document holds the application-level, schema-typed document model.
package document

// Document is the domain document: an optional id, flat typed fields keyed by
// logical name, and an optional tensor section keyed by tensor field name.
// The flat section and the tensor section are independent; marshaling walks
// them separately.
type Document struct {
	ID         string
	Fields     map[string]any
	Tensors    map[string]Tensor
	Highlights []Highlight
}

// Tensor is the tensor payload of one field: an ordered chunk list and one
// embedding vector per chunk. Non-string chunk content is stringified on
// marshal.
type Tensor struct {
	Chunks     []any
	Embeddings [][]float32
}

// Highlight is the best-matching chunk of one tensor field.
type Highlight struct {
	Field string
	Chunk string
}
