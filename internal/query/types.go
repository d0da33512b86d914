package query

import (
	"fmt"
	"sort"

	"github.com/bcgsc/pori-graphkb-core/internal/schema"
)

// Operator is the comparison operator of a leaf predicate.
//
// Only equality and text-contains are valid; anything richer must be
// expressed through clauses, negation or traversals.
type Operator string

const (
	// OpEquals compares for exact (post-cast) equality.
	OpEquals Operator = "="

	// OpContainsText matches records whose indexed text contains the term.
	OpContainsText Operator = "CONTAINSTEXT"
)

// Condition represents one entry in a selection's conditions map.
//
// This is a sealed interface - only types in this package implement it:
//
//   - Comparison: one leaf predicate (value, operator, negate flag)
//   - Clause: AND/OR combinator over comparisons and clauses
//   - SelectionQuery: a nested selection rendered as a subquery
type Condition interface {
	conditionNode() // Marker method - seals interface to this package
}

// Comparison is a leaf predicate: attribute <op> value.
//
// A nil Value always renders as an IS NULL (or CONTAINS NULL) form and
// never produces a bound parameter.
type Comparison struct {
	Value    any
	Operator Operator
	Negate   bool
}

func (*Comparison) conditionNode() {}

// NewComparison builds an equality comparison on value.
func NewComparison(value any) *Comparison {
	return &Comparison{Value: value, Operator: OpEquals}
}

// Clause is a boolean combinator over an ordered list of child predicates.
//
// A clause with exactly one child serializes identically to that child
// alone; the statement compiler is responsible for honoring this.
type Clause struct {
	Operator LogicOperator
	Children []Condition
}

func (*Clause) conditionNode() {}

// LogicOperator is the boolean combinator of a Clause.
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// NewClause builds a clause; children must be comparisons or clauses.
func NewClause(op LogicOperator, children ...Condition) (*Clause, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("clause requires at least one child")
	}
	for _, child := range children {
		switch child.(type) {
		case *Comparison, *Clause:
		default:
			return nil, fmt.Errorf("clause children must be comparisons or clauses, got %T", child)
		}
	}
	return &Clause{Operator: op, Children: children}, nil
}

// Direction is the edge direction of a traversal hop.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

// Unbounded marks a Follow with no depth limit.
const Unbounded = -1

// Follow is one traversal directive: follow edges of the named classes in
// a direction, to a bounded or unbounded depth.
type Follow struct {
	// EdgeClasses are the edge class names to traverse, rendered in the
	// order given.
	EdgeClasses []string

	Direction Direction

	// Depth is the hop bound; Unbounded means follow until exhausted.
	Depth int

	// ActiveOnly restricts traversal to non-deleted nodes.
	ActiveOnly bool
}

// NewFollow validates and builds a traversal directive. Bidirectional
// traversal requires a finite depth bound: an unbounded both-direction
// walk revisits every node.
func NewFollow(edgeClasses []string, dir Direction, depth int, activeOnly bool) (Follow, error) {
	switch dir {
	case DirectionIn, DirectionOut, DirectionBoth:
	default:
		return Follow{}, fmt.Errorf("invalid traversal direction %q", dir)
	}
	if len(edgeClasses) == 0 {
		return Follow{}, fmt.Errorf("traversal requires at least one edge class")
	}
	if depth < 0 && depth != Unbounded {
		return Follow{}, fmt.Errorf("invalid traversal depth %d", depth)
	}
	if dir == DirectionBoth && depth == Unbounded {
		return Follow{}, fmt.Errorf("bidirectional traversal requires a finite depth bound")
	}
	return Follow{
		EdgeClasses: append([]string(nil), edgeClasses...),
		Direction:   dir,
		Depth:       depth,
		ActiveOnly:  activeOnly,
	}, nil
}

// SelectionQuery binds a predicate tree and traversal directives to a
// target class model.
//
// Condition keys are attribute paths; compound (dotted) keys address
// properties of linked classes. Follows holds zero or more alternative
// hop sequences; a query with no follows compiles to a plain SELECT.
type SelectionQuery struct {
	Model *schema.Model

	Conditions map[string]Condition

	// OrAttrs lists flat attribute names whose conditions are combined
	// with OR into a single conjunct instead of being AND-ed.
	OrAttrs []string

	Follows [][]Follow

	Skip int

	// ReturnProperties optionally projects a subset of declared
	// properties; empty means all.
	ReturnProperties []string

	ActiveOnly bool
}

func (*SelectionQuery) conditionNode() {}

// ConditionKeys returns the condition attribute paths in sorted order.
// Iteration over sorted keys keeps compiled statements deterministic.
func (q *SelectionQuery) ConditionKeys() []string {
	keys := make([]string, 0, len(q.Conditions))
	for k := range q.Conditions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PropertyFor resolves the declared property behind an attribute path,
// following link-typed prefixes through the model set. Returns nil for
// meta-attributes and unknown paths.
func (q *SelectionQuery) PropertyFor(attr string, models schema.Set) *schema.Property {
	return propertyForPath(q.Model, attr, models)
}
