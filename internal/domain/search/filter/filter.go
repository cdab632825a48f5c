// Package filter defines the boolean filter expression tree attached to a
// search query. The tree is a closed set of node kinds; compilers switch
// exhaustively over them so a new kind cannot be silently ignored.
package filter

// Node is a node of the filter expression tree. The set of implementations is
// sealed: And, Or, Not, EqualityTerm, RangeTerm.
type Node interface {
	node()
}

// And requires both children to match.
type And struct {
	Left  Node
	Right Node
}

// Or requires either child to match.
type Or struct {
	Left  Node
	Right Node
}

// Not inverts its operand.
type Not struct {
	Operand Node
}

// EqualityTerm is a leaf matching a field against an exact value.
type EqualityTerm struct {
	Field string
	Value string
}

// RangeTerm is a leaf matching a field against a numeric range. At least one
// bound must be set; a term with neither is rejected at compile time.
type RangeTerm struct {
	Field string
	Lower *float64
	Upper *float64
}

func (And) node()          {}
func (Or) node()           {}
func (Not) node()          {}
func (EqualityTerm) node() {}
func (RangeTerm) node()    {}
