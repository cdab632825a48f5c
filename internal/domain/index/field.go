package index

import "fmt"

// FieldType is the declared logical type of an index field.
type FieldType string

// Field type constants.
const (
	TypeText                  FieldType = "text"
	TypeBool                  FieldType = "bool"
	TypeInt                   FieldType = "int"
	TypeFloat                 FieldType = "float"
	TypeArrayText             FieldType = "array<text>"
	TypeArrayInt              FieldType = "array<int>"
	TypeArrayFloat            FieldType = "array<float>"
	TypeImagePointer          FieldType = "image_pointer"
	TypeMultimodalCombination FieldType = "multimodal_combination"
)

// IsValid checks if the field type is one of the supported values.
func (t FieldType) IsValid() bool {
	switch t {
	case TypeText, TypeBool, TypeInt, TypeFloat,
		TypeArrayText, TypeArrayInt, TypeArrayFloat,
		TypeImagePointer, TypeMultimodalCombination:
		return true
	}
	return false
}

// FieldFeature is a capability flag on an index field.
type FieldFeature string

// Field feature constants.
const (
	// FeatureLexicalSearch makes the field keyword-searchable via a dedicated lexical copy.
	FeatureLexicalSearch FieldFeature = "lexical_search"
	// FeatureFilter makes the field usable as a filter term via a dedicated filter copy.
	FeatureFilter FieldFeature = "filter"
	// FeatureScoreModifier makes the field eligible as a ranking score modifier.
	FeatureScoreModifier FieldFeature = "score_modifier"
)

// IsValid checks if the feature is one of the supported values.
func (f FieldFeature) IsValid() bool {
	return f == FeatureLexicalSearch || f == FeatureFilter || f == FeatureScoreModifier
}

// Field is an immutable value object describing a declared index field.
// A field with a lexical and/or filter feature is stored under dedicated
// physical names; a field with neither is stored once under its own name.
type Field struct {
	name             string
	fieldType        FieldType
	features         []FieldFeature
	lexicalFieldName string
	filterFieldName  string
}

// NewField validates and creates a Field.
func NewField(name string, ft FieldType, features []FieldFeature, lexicalFieldName, filterFieldName string) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if !ft.IsValid() {
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	for _, feat := range features {
		if !feat.IsValid() {
			return Field{}, fmt.Errorf("invalid feature %q for field %q", feat, name)
		}
	}
	return Field{
		name:             name,
		fieldType:        ft,
		features:         append([]FieldFeature(nil), features...),
		lexicalFieldName: lexicalFieldName,
		filterFieldName:  filterFieldName,
	}, nil
}

// Name returns the logical field name.
func (f Field) Name() string { return f.name }

// Type returns the declared field type.
func (f Field) Type() FieldType { return f.fieldType }

// LexicalFieldName returns the physical name of the lexical copy, or "".
func (f Field) LexicalFieldName() string { return f.lexicalFieldName }

// FilterFieldName returns the physical name of the filter copy, or "".
func (f Field) FilterFieldName() string { return f.filterFieldName }

// HasFeature reports whether the field carries the given feature.
func (f Field) HasFeature(feat FieldFeature) bool {
	for _, have := range f.features {
		if have == feat {
			return true
		}
	}
	return false
}

// TensorField describes the tensor storage of a field: an ordered chunk list
// plus a sparse index-keyed embedding map, each under its own physical name.
type TensorField struct {
	name                string
	chunkFieldName      string
	embeddingsFieldName string
}

// NewTensorField validates and creates a TensorField.
func NewTensorField(name, chunkFieldName, embeddingsFieldName string) (TensorField, error) {
	if name == "" {
		return TensorField{}, fmt.Errorf("tensor field name is required")
	}
	if chunkFieldName == "" || embeddingsFieldName == "" {
		return TensorField{}, fmt.Errorf("tensor field %q requires chunk and embeddings storage names", name)
	}
	return TensorField{name: name, chunkFieldName: chunkFieldName, embeddingsFieldName: embeddingsFieldName}, nil
}

// Name returns the logical field name.
func (f TensorField) Name() string { return f.name }

// ChunkFieldName returns the physical name of the chunk list.
func (f TensorField) ChunkFieldName() string { return f.chunkFieldName }

// EmbeddingsFieldName returns the physical name of the embedding map.
func (f TensorField) EmbeddingsFieldName() string { return f.embeddingsFieldName }
