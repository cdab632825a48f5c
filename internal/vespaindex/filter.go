package vespaindex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/domain/index"
	"github.com/sycomix/marqo/internal/domain/search/filter"
)

// filterEscaper escapes backslash and double quote inside equality values.
var filterEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
)

// filterString renders a filter expression tree as YQL filter text. Every
// operator and modifier node is parenthesized explicitly so the output never
// relies on YQL precedence.
func (a *Adapter) filterString(node filter.Node) (string, error) {
	switch n := node.(type) {
	case filter.And:
		return a.operatorString(n.Left, "AND", n.Right)
	case filter.Or:
		return a.operatorString(n.Left, "OR", n.Right)
	case filter.Not:
		inner, err := a.filterString(n.Operand)
		if err != nil {
			return "", err
		}
		return "!(" + inner + ")", nil
	case filter.EqualityTerm:
		return a.equalityString(n)
	case filter.RangeTerm:
		return a.rangeString(n)
	default:
		return "", fmt.Errorf("%w: unknown filter node type %T", domain.ErrInternal, node)
	}
}

func (a *Adapter) operatorString(left filter.Node, op string, right filter.Node) (string, error) {
	l, err := a.filterString(left)
	if err != nil {
		return "", err
	}
	r, err := a.filterString(right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", l, op, r), nil
}

func (a *Adapter) equalityString(term filter.EqualityTerm) (string, error) {
	f, err := a.filterField(term.Field)
	if err != nil {
		return "", err
	}

	value := term.Value
	if f.Type() == index.TypeBool {
		switch strings.ToLower(value) {
		case "true":
			value = "1"
		case "false":
			value = "0"
		}
	}

	return fmt.Sprintf(`%s contains "%s"`, f.FilterFieldName(), filterEscaper.Replace(value)), nil
}

func (a *Adapter) rangeString(term filter.RangeTerm) (string, error) {
	f, err := a.filterField(term.Field)
	if err != nil {
		return "", err
	}

	var lower, upper string
	if term.Lower != nil {
		lower = fmt.Sprintf("%s >= %s", f.FilterFieldName(), formatBound(*term.Lower))
	}
	if term.Upper != nil {
		upper = fmt.Sprintf("%s <= %s", f.FilterFieldName(), formatBound(*term.Upper))
	}

	switch {
	case lower != "" && upper != "":
		return fmt.Sprintf("(%s AND %s)", lower, upper), nil
	case lower != "":
		return lower, nil
	case upper != "":
		return upper, nil
	}
	return "", fmt.Errorf("%w: range term for field %q has no lower or upper bound",
		domain.ErrInternal, term.Field)
}

func (a *Adapter) filterField(name string) (index.Field, error) {
	if !a.index.IsFilterable(name) {
		return index.Field{}, domain.NewUnknownField(
			a.index.Name(), name, "filterable", a.index.FilterableFieldNames())
	}
	f, _ := a.index.ResolveField(name)
	return f, nil
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
