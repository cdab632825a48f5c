package index

import (
	"fmt"
	"regexp"

	"github.com/sycomix/marqo/internal/domain"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Index is the read-only schema view of a structured index. It owns the
// declared fields and tensor fields plus the derived lookup maps used for
// document marshaling and query compilation. Declaration order of fields and
// tensor fields is preserved; highlight selection and default searchable
// attributes depend on it.
type Index struct {
	name         string
	fields       []Field
	tensorFields []TensorField

	fieldMap          map[string]Field
	tensorFieldMap    map[string]TensorField
	allFieldMap       map[string]Field       // logical and physical names
	tensorSubfieldMap map[string]TensorField // physical chunk/embeddings name -> owner

	filterableNames  []string
	lexicalNames     []string
	scoreModNames    []string
	filterableSet    map[string]struct{}
	lexicalSet       map[string]struct{}
	scoreModifierSet map[string]struct{}
}

// New validates and creates an Index. Every tensor field must also be a
// declared field, and all logical and physical names must be unique.
func New(name string, fields []Field, tensorFields []TensorField) (*Index, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: index name is required", domain.ErrInvalidSchema)
	}
	if !nameRegex.MatchString(name) {
		return nil, fmt.Errorf("%w: index name must be alphanumeric with underscores and hyphens", domain.ErrInvalidSchema)
	}

	idx := &Index{
		name:              name,
		fields:            append([]Field(nil), fields...),
		tensorFields:      append([]TensorField(nil), tensorFields...),
		fieldMap:          make(map[string]Field, len(fields)),
		tensorFieldMap:    make(map[string]TensorField, len(tensorFields)),
		allFieldMap:       make(map[string]Field, len(fields)*3),
		tensorSubfieldMap: make(map[string]TensorField, len(tensorFields)*2),
		filterableSet:     make(map[string]struct{}),
		lexicalSet:        make(map[string]struct{}),
		scoreModifierSet:  make(map[string]struct{}),
	}

	physical := make(map[string]string) // physical name -> owning logical name

	claim := func(physicalName, logicalName string) error {
		if owner, ok := physical[physicalName]; ok {
			return fmt.Errorf("%w: physical field name %q used by both %q and %q",
				domain.ErrInvalidSchema, physicalName, owner, logicalName)
		}
		physical[physicalName] = logicalName
		return nil
	}

	for _, f := range idx.fields {
		if _, ok := idx.fieldMap[f.Name()]; ok {
			return nil, fmt.Errorf("%w: duplicate field name %q", domain.ErrInvalidSchema, f.Name())
		}
		idx.fieldMap[f.Name()] = f
		idx.allFieldMap[f.Name()] = f

		if n := f.LexicalFieldName(); n != "" {
			if err := claim(n, f.Name()); err != nil {
				return nil, err
			}
			idx.allFieldMap[n] = f
			idx.lexicalSet[f.Name()] = struct{}{}
			idx.lexicalNames = append(idx.lexicalNames, f.Name())
		}
		if n := f.FilterFieldName(); n != "" {
			if err := claim(n, f.Name()); err != nil {
				return nil, err
			}
			idx.allFieldMap[n] = f
			idx.filterableSet[f.Name()] = struct{}{}
			idx.filterableNames = append(idx.filterableNames, f.Name())
		}
		if f.HasFeature(FeatureScoreModifier) {
			idx.scoreModifierSet[f.Name()] = struct{}{}
			idx.scoreModNames = append(idx.scoreModNames, f.Name())
		}
	}

	for _, tf := range idx.tensorFields {
		if _, ok := idx.fieldMap[tf.Name()]; !ok {
			return nil, fmt.Errorf("%w: tensor field %q is not a declared field", domain.ErrInvalidSchema, tf.Name())
		}
		if _, ok := idx.tensorFieldMap[tf.Name()]; ok {
			return nil, fmt.Errorf("%w: duplicate tensor field name %q", domain.ErrInvalidSchema, tf.Name())
		}
		if err := claim(tf.ChunkFieldName(), tf.Name()); err != nil {
			return nil, err
		}
		if err := claim(tf.EmbeddingsFieldName(), tf.Name()); err != nil {
			return nil, err
		}
		idx.tensorFieldMap[tf.Name()] = tf
		idx.tensorSubfieldMap[tf.ChunkFieldName()] = tf
		idx.tensorSubfieldMap[tf.EmbeddingsFieldName()] = tf
	}

	for _, f := range idx.fields {
		if f.Type() == TypeMultimodalCombination {
			if _, ok := idx.tensorFieldMap[f.Name()]; !ok {
				return nil, fmt.Errorf("%w: field %q has type %s and must be a tensor field",
					domain.ErrInvalidSchema, f.Name(), TypeMultimodalCombination)
			}
		}
	}

	return idx, nil
}

// Name returns the index name, which is also the backend schema name.
func (idx *Index) Name() string { return idx.name }

// Fields returns the declared fields in declaration order.
func (idx *Index) Fields() []Field { return idx.fields }

// TensorFields returns the declared tensor fields in declaration order.
func (idx *Index) TensorFields() []TensorField { return idx.tensorFields }

// Field looks up a field by logical name.
func (idx *Index) Field(name string) (Field, bool) {
	f, ok := idx.fieldMap[name]
	return f, ok
}

// TensorField looks up a tensor field by logical name.
func (idx *Index) TensorField(name string) (TensorField, bool) {
	f, ok := idx.tensorFieldMap[name]
	return f, ok
}

// ResolveField looks up a field by logical or physical name.
func (idx *Index) ResolveField(name string) (Field, bool) {
	f, ok := idx.allFieldMap[name]
	return f, ok
}

// ResolveTensorSubfield looks up the tensor field owning a physical chunk or
// embeddings name.
func (idx *Index) ResolveTensorSubfield(name string) (TensorField, bool) {
	f, ok := idx.tensorSubfieldMap[name]
	return f, ok
}

// IsFilterable reports whether the field has a filter storage copy.
func (idx *Index) IsFilterable(name string) bool {
	_, ok := idx.filterableSet[name]
	return ok
}

// IsLexicallySearchable reports whether the field has a lexical storage copy.
func (idx *Index) IsLexicallySearchable(name string) bool {
	_, ok := idx.lexicalSet[name]
	return ok
}

// IsScoreModifier reports whether the field is score-modifier eligible.
func (idx *Index) IsScoreModifier(name string) bool {
	_, ok := idx.scoreModifierSet[name]
	return ok
}

// FieldNames returns all logical field names in declaration order.
func (idx *Index) FieldNames() []string {
	names := make([]string, len(idx.fields))
	for i, f := range idx.fields {
		names[i] = f.Name()
	}
	return names
}

// TensorFieldNames returns tensor field names in declaration order.
func (idx *Index) TensorFieldNames() []string {
	names := make([]string, len(idx.tensorFields))
	for i, f := range idx.tensorFields {
		names[i] = f.Name()
	}
	return names
}

// FilterableFieldNames returns filterable field names in declaration order.
func (idx *Index) FilterableFieldNames() []string {
	return append([]string(nil), idx.filterableNames...)
}

// LexicalFieldNames returns lexically searchable field names in declaration order.
func (idx *Index) LexicalFieldNames() []string {
	return append([]string(nil), idx.lexicalNames...)
}

// ScoreModifierFieldNames returns score-modifier-eligible field names in declaration order.
func (idx *Index) ScoreModifierFieldNames() []string {
	return append([]string(nil), idx.scoreModNames...)
}
