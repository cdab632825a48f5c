package vespaindex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sycomix/marqo/internal/db/vespa"
	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/domain/index"
	"github.com/sycomix/marqo/internal/domain/search"
)

// ToVespaQuery compiles a domain query into the backend query object. The
// query kinds form a closed set; an unknown kind is an internal error, and
// hybrid queries fail fast with domain.ErrNotSupported instead of degrading
// to tensor or lexical behavior.
func (a *Adapter) ToVespaQuery(q search.Query) (vespa.SearchRequest, error) {
	attributes, err := a.retrieveAttributes(q)
	if err != nil {
		return nil, err
	}
	if err := a.verifyScoreModifiers(q); err != nil {
		return nil, err
	}

	switch qt := q.(type) {
	case *search.TensorQuery:
		return a.tensorQuery(qt, attributes)
	case *search.LexicalQuery:
		return a.lexicalQuery(qt, attributes)
	case *search.HybridQuery:
		return nil, fmt.Errorf("%w: hybrid query compilation", domain.ErrNotSupported)
	default:
		return nil, fmt.Errorf("%w: unknown query type %T", domain.ErrInternal, q)
	}
}

// VectorCountQuery builds the aggregation query that sums the per-document
// vector counts across the index.
func (a *Adapter) VectorCountQuery() vespa.SearchRequest {
	return vespa.SearchRequest{
		"yql": fmt.Sprintf(
			"select %s from %s where true limit 0 | all(group(1) each(output(sum(%s))))",
			FieldVectorCount, a.index.Name(), FieldVectorCount,
		),
		"model_restrict": a.index.Name(),
		"timeout":        "5s",
	}
}

// retrieveAttributes validates an explicit attributes-to-retrieve list and
// extends a copy of it with the id field and the chunk storage names of any
// retrievable tensor attributes, so highlight extraction can always recover
// chunk text. A nil list selects every field.
func (a *Adapter) retrieveAttributes(q search.Query) ([]string, error) {
	requested := search.Base(q).AttributesToRetrieve
	if requested == nil {
		return nil, nil
	}

	var chunkFields []string
	for _, att := range requested {
		if _, ok := a.index.Field(att); !ok {
			return nil, domain.NewUnknownField(a.index.Name(), att, "", a.index.FieldNames())
		}
		if tf, ok := a.index.TensorField(att); ok {
			chunkFields = append(chunkFields, tf.ChunkFieldName())
		}
	}

	attributes := make([]string, 0, len(requested)+1+len(chunkFields))
	attributes = append(attributes, requested...)
	attributes = append(attributes, FieldID)
	attributes = append(attributes, chunkFields...)
	return attributes, nil
}

func (a *Adapter) verifyScoreModifiers(q search.Query) error {
	for _, m := range search.Base(q).ScoreModifiers {
		if !a.index.IsScoreModifier(m.Field) {
			return domain.NewUnknownField(
				a.index.Name(), m.Field, "score modifier", a.index.ScoreModifierFieldNames())
		}
	}
	return nil
}

// scoreModifierInputs splits modifiers into the multiplicative and additive
// weight maps expected by the modifier-aware rank profiles. Returns nil when
// no modifiers are given.
func scoreModifierInputs(c *search.Common) (map[string]any, error) {
	if len(c.ScoreModifiers) == 0 {
		return nil, nil
	}

	mult := make(map[string]float64)
	add := make(map[string]float64)
	for _, m := range c.ScoreModifiers {
		switch m.Type {
		case search.ScoreModifierMultiply:
			mult[m.Field] = m.Weight
		case search.ScoreModifierAdd:
			add[m.Field] = m.Weight
		default:
			return nil, fmt.Errorf("%w: unknown score modifier type %q", domain.ErrInternal, m.Type)
		}
	}

	// one of the maps may be empty, but never both
	return map[string]any{
		QueryInputMultWeights: mult,
		QueryInputAddWeights:  add,
	}, nil
}

func (a *Adapter) tensorQuery(q *search.TensorQuery, attributes []string) (vespa.SearchRequest, error) {
	fieldsToSearch, err := a.tensorSearchFields(q)
	if err != nil {
		return nil, err
	}

	tensorTerm := a.tensorSearchTerm(q, fieldsToSearch)
	filterTerm, err := a.appendedFilterTerm(&q.Common)
	if err != nil {
		return nil, err
	}

	modifiers, err := scoreModifierInputs(&q.Common)
	if err != nil {
		return nil, err
	}
	ranking := RankProfileEmbeddingSimilarity
	if modifiers != nil {
		ranking = RankProfileEmbeddingSimilarityModifiers
	}

	features := make(map[string]any, len(fieldsToSearch)+len(modifiers)+1)
	features[QueryInputEmbedding] = q.Vector
	for _, tf := range fieldsToSearch {
		features[tf.Name()] = 1
	}
	for k, v := range modifiers {
		features[k] = v
	}

	req := vespa.SearchRequest{
		"yql": fmt.Sprintf("select %s from %s where %s%s",
			selectClause(attributes), a.index.Name(), tensorTerm, filterTerm),
		"model_restrict":       a.index.Name(),
		"hits":                 q.Limit,
		"offset":               q.Offset,
		"query_features":       features,
		"presentation.summary": summaryClass(&q.Common),
		"ranking":              ranking,
	}

	if !q.Approximate {
		// exact nearest neighbor search can run long; never truncate it early
		req["ranking.softtimeout.enable"] = false
		req["timeout"] = exactSearchTimeout
	}

	return stripAbsent(req), nil
}

func (a *Adapter) tensorSearchFields(q *search.TensorQuery) ([]index.TensorField, error) {
	if q.SearchableAttributes == nil {
		return a.index.TensorFields(), nil
	}

	fields := make([]index.TensorField, 0, len(q.SearchableAttributes))
	for _, att := range q.SearchableAttributes {
		tf, ok := a.index.TensorField(att)
		if !ok {
			return nil, domain.NewUnknownField(a.index.Name(), att, "tensor", a.index.TensorFieldNames())
		}
		fields = append(fields, tf)
	}
	return fields, nil
}

// tensorSearchTerm builds one nearestNeighbor clause per searched field,
// OR-combined. With nothing to search the match predicate is the
// unconditional false: a valid query with zero results.
func (a *Adapter) tensorSearchTerm(q *search.TensorQuery, fields []index.TensorField) string {
	if len(fields) == 0 {
		return "false"
	}

	base := q.Limit + q.Offset
	targetHits := base
	additionalHits := 0
	if q.EFSearch != nil {
		targetHits = min(base, *q.EFSearch)
		additionalHits = max(*q.EFSearch-base, 0)
	}

	terms := make([]string, len(fields))
	for i, tf := range fields {
		terms[i] = fmt.Sprintf(
			"({targetHits:%d, approximate:%s, hnsw.exploreAdditionalHits:%d}nearestNeighbor(%s, %s))",
			targetHits, strconv.FormatBool(q.Approximate), additionalHits,
			tf.EmbeddingsFieldName(), QueryInputEmbedding,
		)
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

func (a *Adapter) lexicalQuery(q *search.LexicalQuery, attributes []string) (vespa.SearchRequest, error) {
	fieldsToSearch, err := a.lexicalSearchFields(q)
	if err != nil {
		return nil, err
	}

	lexicalTerm := "false"
	if len(fieldsToSearch) > 0 {
		lexicalTerm = a.lexicalSearchTerm(q)
	}
	filterTerm, err := a.appendedFilterTerm(&q.Common)
	if err != nil {
		return nil, err
	}

	modifiers, err := scoreModifierInputs(&q.Common)
	if err != nil {
		return nil, err
	}
	ranking := RankProfileBM25
	if modifiers != nil {
		ranking = RankProfileBM25Modifiers
	}

	features := make(map[string]any, len(fieldsToSearch)+len(modifiers))
	for _, f := range fieldsToSearch {
		features[f.Name()] = 1
	}
	for k, v := range modifiers {
		features[k] = v
	}

	req := vespa.SearchRequest{
		"yql": fmt.Sprintf("select %s from %s where %s%s",
			selectClause(attributes), a.index.Name(), lexicalTerm, filterTerm),
		"model_restrict":       a.index.Name(),
		"hits":                 q.Limit,
		"offset":               q.Offset,
		"query_features":       features,
		"presentation.summary": summaryClass(&q.Common),
		"ranking":              ranking,
	}

	return stripAbsent(req), nil
}

func (a *Adapter) lexicalSearchFields(q *search.LexicalQuery) ([]index.Field, error) {
	if q.SearchableAttributes == nil {
		names := a.index.LexicalFieldNames()
		fields := make([]index.Field, len(names))
		for i, name := range names {
			fields[i], _ = a.index.Field(name)
		}
		return fields, nil
	}

	fields := make([]index.Field, 0, len(q.SearchableAttributes))
	for _, att := range q.SearchableAttributes {
		if !a.index.IsLexicallySearchable(att) {
			return nil, domain.NewUnknownField(
				a.index.Name(), att, "lexically searchable", a.index.LexicalFieldNames())
		}
		f, _ := a.index.Field(att)
		fields = append(fields, f)
	}
	return fields, nil
}

// lexicalSearchTerm combines disjunctive phrases with weakAnd (best-effort,
// ranked) and conjunctive phrases with strict AND; when both are present the
// conjunctive clause is AND-ed after the weakAnd aggregator.
func (a *Adapter) lexicalSearchTerm(q *search.LexicalQuery) string {
	var orTerms string
	if len(q.OrPhrases) > 0 {
		contains := make([]string, len(q.OrPhrases))
		for i, phrase := range q.OrPhrases {
			contains[i] = a.lexicalContainsTerm(phrase, q)
		}
		orTerms = "weakAnd(" + strings.Join(contains, ", ") + ")"
	}

	var andTerms string
	if len(q.AndPhrases) > 0 {
		contains := make([]string, len(q.AndPhrases))
		for i, phrase := range q.AndPhrases {
			contains[i] = a.lexicalContainsTerm(phrase, q)
		}
		andTerms = strings.Join(contains, " AND ")
		if orTerms != "" {
			andTerms = " AND (" + andTerms + ")"
		}
	}

	term := orTerms + andTerms
	if term == "" {
		return "false"
	}
	return term
}

func (a *Adapter) lexicalContainsTerm(phrase string, q *search.LexicalQuery) string {
	if q.SearchableAttributes == nil {
		return fmt.Sprintf(`default contains "%s"`, phrase)
	}

	terms := make([]string, len(q.SearchableAttributes))
	for i, att := range q.SearchableAttributes {
		f, _ := a.index.Field(att)
		terms[i] = fmt.Sprintf(`%s contains "%s"`, f.LexicalFieldName(), phrase)
	}
	return strings.Join(terms, " OR ")
}

// appendedFilterTerm renders the query filter prefixed with " AND ", or ""
// when no filter is given.
func (a *Adapter) appendedFilterTerm(c *search.Common) (string, error) {
	if c.Filter == nil {
		return "", nil
	}
	s, err := a.filterString(c.Filter)
	if err != nil {
		return "", err
	}
	return " AND " + s, nil
}

func selectClause(attributes []string) string {
	if attributes == nil {
		return "*"
	}
	return strings.Join(attributes, ", ")
}

func summaryClass(c *search.Common) string {
	if c.ExposeFacets {
		return SummaryAllVector
	}
	return SummaryAllNonVector
}

// stripAbsent drops parameters whose value is absent so they are never sent
// as JSON null.
func stripAbsent(req vespa.SearchRequest) vespa.SearchRequest {
	for k, v := range req {
		if v == nil {
			delete(req, k)
		}
	}
	return req
}
