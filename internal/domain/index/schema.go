package index

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sycomix/marqo/internal/domain"
)

// Physical storage name prefixes. One logical field may be stored several
// times: a lexical copy, a filter copy, and (for tensor fields) a chunk list
// plus an embedding map.
const (
	lexicalFieldPrefix    = "marqo__lexical_"
	filterFieldPrefix     = "marqo__filter_"
	chunksFieldPrefix     = "marqo__chunks_"
	embeddingsFieldPrefix = "marqo__embeddings_"
)

// SchemaFile is the on-disk YAML declaration of one or more structured indexes.
type SchemaFile struct {
	Indexes []SchemaDef `yaml:"indexes"`
}

// SchemaDef declares a single structured index.
type SchemaDef struct {
	Name         string     `yaml:"name"`
	Fields       []FieldDef `yaml:"fields"`
	TensorFields []string   `yaml:"tensor_fields"`
}

// FieldDef declares a single field.
type FieldDef struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Features []string `yaml:"features"`
}

// LoadSchemas reads index declarations from a YAML file and hydrates them
// into Index values with generated physical storage names.
func LoadSchemas(path string) ([]*Index, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read schema file %s: %w", path, err)
	}

	var file SchemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schema file %s: %w", path, err)
	}
	if len(file.Indexes) == 0 {
		return nil, fmt.Errorf("%w: schema file %s declares no indexes", domain.ErrInvalidSchema, path)
	}

	indexes := make([]*Index, 0, len(file.Indexes))
	for _, def := range file.Indexes {
		idx, err := FromDef(def)
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", def.Name, err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// FromDef builds an Index from a declaration, generating the physical storage
// names for lexical, filter, chunk and embedding copies.
func FromDef(def SchemaDef) (*Index, error) {
	fields := make([]Field, 0, len(def.Fields))
	for _, fd := range def.Fields {
		features := make([]FieldFeature, 0, len(fd.Features))
		for _, feat := range fd.Features {
			features = append(features, FieldFeature(feat))
		}

		var lexicalName, filterName string
		for _, feat := range features {
			switch feat {
			case FeatureLexicalSearch:
				lexicalName = lexicalFieldPrefix + fd.Name
			case FeatureFilter:
				filterName = filterFieldPrefix + fd.Name
			}
		}

		f, err := NewField(fd.Name, FieldType(fd.Type), features, lexicalName, filterName)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchema, err)
		}
		fields = append(fields, f)
	}

	tensorFields := make([]TensorField, 0, len(def.TensorFields))
	for _, name := range def.TensorFields {
		tf, err := NewTensorField(name, chunksFieldPrefix+name, embeddingsFieldPrefix+name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchema, err)
		}
		tensorFields = append(tensorFields, tf)
	}

	return New(def.Name, fields, tensorFields)
}

// Catalog is an immutable in-memory set of loaded indexes keyed by name.
type Catalog struct {
	indexes map[string]*Index
}

// NewCatalog creates a catalog from loaded indexes.
func NewCatalog(indexes []*Index) *Catalog {
	m := make(map[string]*Index, len(indexes))
	for _, idx := range indexes {
		m[idx.Name()] = idx
	}
	return &Catalog{indexes: m}
}

// Get returns the index with the given name.
func (c *Catalog) Get(name string) (*Index, error) {
	idx, ok := c.indexes[name]
	if !ok {
		return nil, fmt.Errorf("index %q: %w", name, domain.ErrNotFound)
	}
	return idx, nil
}
