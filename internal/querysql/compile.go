// Package querysql compiles SelectionQuery trees into parameterized
// statements for the backing graph engine.
//
// Queries without traversal hops compile to a plain SELECT; queries with
// hops compile to a MATCH over graph patterns. All condition values are
// bound as named parameters (never interpolated) and condition keys are
// serialized in sorted order, so identical logical queries always compile
// to identical text.
package querysql

import (
	"fmt"
	"strings"

	"github.com/bcgsc/pori-graphkb-core/internal/query"
	"github.com/bcgsc/pori-graphkb-core/internal/schema"
)

// DefaultParamPrefix names bound parameters param0, param1, ...
const DefaultParamPrefix = "param"

// Statement is one compiled, executable statement.
type Statement struct {
	// Text is the statement with named :param placeholders.
	Text string

	// Params maps placeholder names to their bound values.
	Params map[string]any
}

// Compiler compiles SelectionQuery values against a model set.
type Compiler struct {
	// Models resolves linked classes for container/link typing of
	// dotted attribute paths.
	Models schema.Set

	// ParamPrefix overrides the bound-parameter name prefix.
	ParamPrefix string
}

// NewCompiler creates a compiler over the given model set.
func NewCompiler(models schema.Set) *Compiler {
	return &Compiler{Models: models, ParamPrefix: DefaultParamPrefix}
}

// Compile converts a SelectionQuery to a parameterized statement.
// Parameter names are unique within the whole statement, subqueries
// included.
func (c *Compiler) Compile(q *query.SelectionQuery) (*Statement, error) {
	if q == nil {
		return nil, fmt.Errorf("cannot compile nil query")
	}
	prefix := c.ParamPrefix
	if prefix == "" {
		prefix = DefaultParamPrefix
	}
	st := &compileState{prefix: prefix, params: make(map[string]any)}
	text, err := st.synthesize(q, c.Models)
	if err != nil {
		return nil, err
	}
	return &Statement{Text: text, Params: st.params}, nil
}

// compileState carries the parameter counter across the whole statement,
// subqueries included, so placeholder names never collide.
type compileState struct {
	prefix string
	n      int
	params map[string]any
}

// bind registers a value and returns its placeholder name.
func (st *compileState) bind(value any) string {
	name := fmt.Sprintf("%s%d", st.prefix, st.n)
	st.n++
	st.params[name] = value
	return name
}

// synthesize renders one selection: SELECT with zero hops, MATCH with one
// or more alternative hop sequences.
func (st *compileState) synthesize(q *query.SelectionQuery, models schema.Set) (string, error) {
	where, err := st.conditions(q, models)
	if err != nil {
		return "", err
	}

	if len(q.Follows) == 0 {
		projection := "*"
		if len(q.ReturnProperties) > 0 {
			projection = strings.Join(q.ReturnProperties, ", ")
		}
		var b strings.Builder
		fmt.Fprintf(&b, "SELECT %s FROM %s", projection, q.Model.Name)
		if where != "" {
			b.WriteString(" WHERE ")
			b.WriteString(where)
		}
		if q.Skip > 0 {
			fmt.Fprintf(&b, " SKIP %d", q.Skip)
		}
		return b.String(), nil
	}

	patterns := make([]string, 0, len(q.Follows))
	for _, seq := range q.Follows {
		var b strings.Builder
		if where == "" {
			fmt.Fprintf(&b, "{class: %s}", q.Model.Name)
		} else {
			fmt.Fprintf(&b, "{class: %s, where: (%s)}", q.Model.Name, where)
		}
		for _, hop := range seq {
			b.WriteString(renderFollow(hop))
		}
		patterns = append(patterns, b.String())
	}
	text := fmt.Sprintf("MATCH %s RETURN $pathElements", strings.Join(patterns, ", "))

	if len(q.ReturnProperties) > 0 || q.Skip > 0 {
		projection := "*"
		if len(q.ReturnProperties) > 0 {
			projection = strings.Join(q.ReturnProperties, ", ")
		}
		text = fmt.Sprintf("SELECT %s FROM (%s)", projection, text)
		if q.Skip > 0 {
			text = fmt.Sprintf("%s SKIP %d", text, q.Skip)
		}
	}
	return text, nil
}

// conditions renders the WHERE body: sorted condition keys AND-ed, with
// or-grouped attributes collapsed into a single OR conjunct.
func (st *compileState) conditions(q *query.SelectionQuery, models schema.Set) (string, error) {
	orSet := make(map[string]bool, len(q.OrAttrs))
	for _, attr := range q.OrAttrs {
		orSet[attr] = true
	}

	var conjuncts, orParts []string
	for _, attr := range q.ConditionKeys() {
		rendered, err := st.condition(q, attr, q.Conditions[attr], models)
		if err != nil {
			return "", err
		}
		if orSet[attr] {
			orParts = append(orParts, rendered)
		} else {
			conjuncts = append(conjuncts, rendered)
		}
	}

	// A single or-grouped attribute degenerates to a plain conjunct.
	switch len(orParts) {
	case 0:
	case 1:
		conjuncts = append(conjuncts, orParts[0])
	default:
		conjuncts = append(conjuncts, "("+strings.Join(orParts, " OR ")+")")
	}

	return strings.Join(conjuncts, " AND "), nil
}

// condition renders a single condition entry.
func (st *compileState) condition(q *query.SelectionQuery, attr string, cond query.Condition, models schema.Set) (string, error) {
	switch c := cond.(type) {
	case *query.Comparison:
		prop := q.PropertyFor(attr, models)
		container := prop != nil && prop.Type.IsContainer()
		return st.comparison(attr, c, container), nil
	case *query.Clause:
		return st.clause(q, attr, c, models)
	case *query.SelectionQuery:
		nested, err := st.synthesize(c, models)
		if err != nil {
			return "", fmt.Errorf("compile subquery for %s: %w", attr, err)
		}
		return fmt.Sprintf("%s IN (SELECT @rid FROM (%s))", attr, nested), nil
	default:
		return "", fmt.Errorf("unsupported condition type %T for %s", cond, attr)
	}
}

// comparison renders one leaf predicate. A nil value renders as an
// IS NULL / CONTAINS NULL form and never binds a parameter.
func (st *compileState) comparison(attr string, c *query.Comparison, container bool) string {
	var rendered string
	switch {
	case c.Value == nil && container:
		rendered = attr + " CONTAINS NULL"
	case c.Value == nil:
		rendered = attr + " IS NULL"
	case c.Operator == query.OpContainsText:
		rendered = fmt.Sprintf("%s CONTAINSTEXT :%s", attr, st.bind(c.Value))
	case container:
		rendered = fmt.Sprintf("%s CONTAINS :%s", attr, st.bind(c.Value))
	default:
		rendered = fmt.Sprintf("%s = :%s", attr, st.bind(c.Value))
	}
	if c.Negate {
		rendered = "NOT (" + rendered + ")"
	}
	return rendered
}

// clause renders a boolean combinator. A single-child clause serializes
// identically to its child alone.
func (st *compileState) clause(q *query.SelectionQuery, attr string, cl *query.Clause, models schema.Set) (string, error) {
	parts := make([]string, 0, len(cl.Children))
	for _, child := range cl.Children {
		part, err := st.condition(q, attr, child, models)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " "+string(cl.Operator)+" ") + ")", nil
}

// renderFollow renders one traversal hop with its while bound.
func renderFollow(f query.Follow) string {
	quoted := make([]string, len(f.EdgeClasses))
	for i, e := range f.EdgeClasses {
		quoted[i] = "'" + e + "'"
	}
	edges := strings.Join(quoted, ", ")

	var while string
	if f.Depth == query.Unbounded {
		// Walk until the next hop would match zero edges.
		while = fmt.Sprintf("%s(%s).size() > 0", f.Direction, edges)
	} else {
		while = fmt.Sprintf("$depth < %d", f.Depth)
	}
	if f.ActiveOnly {
		while += " AND deletedAt IS NULL"
	}
	return fmt.Sprintf(".%s(%s){while: (%s)}", f.Direction, edges, while)
}
