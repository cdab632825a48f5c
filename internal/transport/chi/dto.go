package chi

import (
	"errors"
	"fmt"

	domdoc "github.com/sycomix/marqo/internal/domain/document"
	domsearch "github.com/sycomix/marqo/internal/domain/search"
	"github.com/sycomix/marqo/internal/domain/search/filter"
	"github.com/sycomix/marqo/internal/domain/search/result"
	searchuc "github.com/sycomix/marqo/internal/usecase/search"
)

// searchRequestDTO is the JSON body of POST /indexes/{index}/search.
type searchRequestDTO struct {
	Method string `json:"method"`
	Query  string `json:"q"`

	Limit       int   `json:"limit,omitempty"`
	Offset      int   `json:"offset,omitempty"`
	EFSearch    *int  `json:"ef_search,omitempty"`
	Approximate *bool `json:"approximate,omitempty"`

	SearchableAttributes []string           `json:"searchable_attributes,omitempty"`
	AttributesToRetrieve []string           `json:"attributes_to_retrieve,omitempty"`
	Filter               *filterDTO         `json:"filter,omitempty"`
	ScoreModifiers       *scoreModifiersDTO `json:"score_modifiers,omitempty"`
	ExposeFacets         bool               `json:"expose_facets,omitempty"`
}

// filterDTO is one node of the JSON filter tree: exactly one operator member
// must be set. "and" and "or" take two or more operands and fold left.
type filterDTO struct {
	And []filterDTO `json:"and,omitempty"`
	Or  []filterDTO `json:"or,omitempty"`
	Not *filterDTO  `json:"not,omitempty"`

	Field  string    `json:"field,omitempty"`
	Equals *string   `json:"equals,omitempty"`
	Range  *rangeDTO `json:"range,omitempty"`
}

type rangeDTO struct {
	Gte *float64 `json:"gte,omitempty"`
	Lte *float64 `json:"lte,omitempty"`
}

type scoreModifiersDTO struct {
	MultiplyScoreBy []weightDTO `json:"multiply_score_by,omitempty"`
	AddToScore      []weightDTO `json:"add_to_score,omitempty"`
}

type weightDTO struct {
	FieldName string  `json:"field_name"`
	Weight    float64 `json:"weight"`
}

type searchResponseDTO struct {
	Hits   []hitDTO `json:"hits"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

type hitDTO struct {
	ID         string               `json:"_id"`
	Score      float64              `json:"_score"`
	Fields     map[string]any       `json:"fields"`
	Highlights []highlightDTO       `json:"_highlights"`
	Tensors    map[string]tensorDTO `json:"tensors,omitempty"`
}

type highlightDTO struct {
	Field string `json:"field"`
	Chunk string `json:"chunk"`
}

// documentDTO is the JSON body of PUT /indexes/{index}/documents/{id} and the
// response of GET on the same path.
type documentDTO struct {
	ID      string               `json:"_id,omitempty"`
	Fields  map[string]any       `json:"fields"`
	Tensors map[string]tensorDTO `json:"tensors,omitempty"`
}

type tensorDTO struct {
	Chunks     []any       `json:"chunks"`
	Embeddings [][]float32 `json:"embeddings"`
}

type statsResponseDTO struct {
	Index       string `json:"index"`
	VectorCount int    `json:"vector_count"`
}

func searchRequestFromDTO(req searchRequestDTO) (searchuc.Request, error) {
	node, err := filterFromDTO(req.Filter)
	if err != nil {
		return searchuc.Request{}, fmt.Errorf("parse filter: %w", err)
	}

	return searchuc.Request{
		Kind:                 searchuc.Kind(req.Method),
		Query:                req.Query,
		Limit:                req.Limit,
		Offset:               req.Offset,
		EFSearch:             req.EFSearch,
		Approximate:          req.Approximate,
		SearchableAttributes: req.SearchableAttributes,
		AttributesToRetrieve: req.AttributesToRetrieve,
		Filter:               node,
		ScoreModifiers:       scoreModifiersFromDTO(req.ScoreModifiers),
		ExposeFacets:         req.ExposeFacets,
	}, nil
}

func scoreModifiersFromDTO(dto *scoreModifiersDTO) []domsearch.ScoreModifier {
	if dto == nil {
		return nil
	}
	mods := make([]domsearch.ScoreModifier, 0, len(dto.MultiplyScoreBy)+len(dto.AddToScore))
	for _, w := range dto.MultiplyScoreBy {
		mods = append(mods, domsearch.ScoreModifier{
			Field: w.FieldName, Weight: w.Weight, Type: domsearch.ScoreModifierMultiply,
		})
	}
	for _, w := range dto.AddToScore {
		mods = append(mods, domsearch.ScoreModifier{
			Field: w.FieldName, Weight: w.Weight, Type: domsearch.ScoreModifierAdd,
		})
	}
	return mods
}

func filterFromDTO(dto *filterDTO) (filter.Node, error) {
	if dto == nil {
		return nil, nil
	}
	set := 0
	if len(dto.And) > 0 {
		set++
	}
	if len(dto.Or) > 0 {
		set++
	}
	if dto.Not != nil {
		set++
	}
	if dto.Field != "" {
		set++
	}
	if set != 1 {
		return nil, errors.New("filter node must have exactly one of and, or, not, field")
	}

	switch {
	case len(dto.And) > 0:
		return foldFilter(dto.And, func(l, r filter.Node) filter.Node {
			return filter.And{Left: l, Right: r}
		})
	case len(dto.Or) > 0:
		return foldFilter(dto.Or, func(l, r filter.Node) filter.Node {
			return filter.Or{Left: l, Right: r}
		})
	case dto.Not != nil:
		operand, err := filterFromDTO(dto.Not)
		if err != nil {
			return nil, err
		}
		return filter.Not{Operand: operand}, nil
	}

	if dto.Equals != nil && dto.Range != nil {
		return nil, fmt.Errorf("filter on %q must have equals or range, not both", dto.Field)
	}
	if dto.Equals != nil {
		return filter.EqualityTerm{Field: dto.Field, Value: *dto.Equals}, nil
	}
	if dto.Range != nil {
		return filter.RangeTerm{Field: dto.Field, Lower: dto.Range.Gte, Upper: dto.Range.Lte}, nil
	}
	return nil, fmt.Errorf("filter on %q must have equals or range", dto.Field)
}

func foldFilter(operands []filterDTO, join func(l, r filter.Node) filter.Node) (filter.Node, error) {
	if len(operands) < 2 {
		return nil, errors.New("and/or filter needs at least two operands")
	}
	acc, err := filterFromDTO(&operands[0])
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(operands); i++ {
		right, err := filterFromDTO(&operands[i])
		if err != nil {
			return nil, err
		}
		acc = join(acc, right)
	}
	return acc, nil
}

func documentFromDTO(id string, dto documentDTO) *domdoc.Document {
	doc := &domdoc.Document{ID: id, Fields: dto.Fields}
	if doc.Fields == nil {
		doc.Fields = map[string]any{}
	}
	if len(dto.Tensors) > 0 {
		doc.Tensors = make(map[string]domdoc.Tensor, len(dto.Tensors))
		for name, t := range dto.Tensors {
			doc.Tensors[name] = domdoc.Tensor{Chunks: t.Chunks, Embeddings: t.Embeddings}
		}
	}
	return doc
}

func documentToDTO(doc *domdoc.Document) documentDTO {
	dto := documentDTO{ID: doc.ID, Fields: doc.Fields}
	if dto.Fields == nil {
		dto.Fields = map[string]any{}
	}
	if len(doc.Tensors) > 0 {
		dto.Tensors = make(map[string]tensorDTO, len(doc.Tensors))
		for name, t := range doc.Tensors {
			dto.Tensors[name] = tensorDTO{Chunks: t.Chunks, Embeddings: t.Embeddings}
		}
	}
	return dto
}

func hitToDTO(h result.Hit, includeTensors bool) hitDTO {
	dto := hitDTO{
		ID:         h.Document.ID,
		Score:      h.Score,
		Fields:     h.Document.Fields,
		Highlights: make([]highlightDTO, 0, len(h.Document.Highlights)),
	}
	if dto.Fields == nil {
		dto.Fields = map[string]any{}
	}
	for _, hl := range h.Document.Highlights {
		dto.Highlights = append(dto.Highlights, highlightDTO{Field: hl.Field, Chunk: hl.Chunk})
	}
	if includeTensors && len(h.Document.Tensors) > 0 {
		dto.Tensors = make(map[string]tensorDTO, len(h.Document.Tensors))
		for name, t := range h.Document.Tensors {
			dto.Tensors[name] = tensorDTO{Chunks: t.Chunks, Embeddings: t.Embeddings}
		}
	}
	return dto
}
