package query

import (
	"regexp"
	"strings"

	"github.com/bcgsc/pori-graphkb-core/internal/gkerr"
	"github.com/bcgsc/pori-graphkb-core/internal/schema"
)

// ridShape matches an identifier reference (e.g. #14:3).
var ridShape = regexp.MustCompile(`^#-?\d+:-?\d+$`)

// Options controls SelectionQuery construction.
type Options struct {
	// ActiveOnly injects an implicit deletion-marker IS NULL condition
	// when the target class declares one.
	ActiveOnly bool

	Skip int

	// ReturnProperties projects a subset of declared property names.
	ReturnProperties []string

	// Follows holds the resolved traversal alternatives.
	Follows [][]Follow

	// OrAttrs lists flat attribute names whose conditions are OR-ed.
	OrAttrs []string
}

// DefaultOptions returns the construction defaults: active records only,
// no pagination, full projection.
func DefaultOptions() Options {
	return Options{ActiveOnly: true}
}

// NewSelectionQuery validates conditions against the target model and
// assembles a SelectionQuery.
//
// Compound (dotted) keys whose prefix is a link-typed property are grouped
// per prefix and compiled recursively against the linked model. A nested
// query without traversal hops is inlined back into the parent under
// dotted names, cast functions carried over; one with hops stays a genuine
// subquery. Every other key must be a declared property or an identity
// meta-attribute.
func NewSelectionQuery(models schema.Set, model *schema.Model, conditions map[string]Condition, opts Options) (*SelectionQuery, error) {
	q := &SelectionQuery{
		Model:            model,
		Conditions:       make(map[string]Condition, len(conditions)+1),
		Follows:          opts.Follows,
		Skip:             opts.Skip,
		ReturnProperties: opts.ReturnProperties,
		ActiveOnly:       opts.ActiveOnly,
	}
	if q.Skip < 0 {
		q.Skip = 0
	}

	for _, name := range opts.ReturnProperties {
		if !model.HasProperty(name) {
			return nil, gkerr.Attribute(name, "invalid return property for class %s", model.Name)
		}
	}

	// Split flat keys from compound groups. Iteration order does not
	// matter here: the conditions map is re-sorted at serialization.
	compound := make(map[string]map[string]Condition)
	for attr, cond := range conditions {
		prefix, rest, isCompound := strings.Cut(attr, ".")
		if !isCompound {
			if err := q.addFlat(models, attr, cond); err != nil {
				return nil, err
			}
			continue
		}
		prop := model.Property(prefix)
		if prop == nil {
			return nil, gkerr.Attribute(attr, "unknown attribute prefix %q for class %s", prefix, model.Name)
		}
		if !prop.Type.IsLink() || prop.LinkedClass == "" {
			return nil, gkerr.Attribute(attr, "attribute %q of class %s is not a link", prefix, model.Name)
		}
		if compound[prefix] == nil {
			compound[prefix] = make(map[string]Condition)
		}
		compound[prefix][rest] = cond
	}

	for prefix, group := range compound {
		linked, ok := models.Get(model.Property(prefix).LinkedClass)
		if !ok {
			return nil, gkerr.Attribute(prefix, "link target class %q is not registered",
				model.Property(prefix).LinkedClass)
		}
		nested, err := NewSelectionQuery(models, linked, group, Options{ActiveOnly: opts.ActiveOnly})
		if err != nil {
			return nil, err
		}
		if len(nested.Follows) == 0 {
			// No hops: inline the nested conditions under dotted names,
			// avoiding a correlated subquery.
			for attr, cond := range nested.Conditions {
				q.Conditions[prefix+"."+attr] = cond
			}
		} else {
			q.Conditions[prefix] = nested
		}
	}

	if opts.ActiveOnly {
		if marker := model.DeletionMarker(); marker != "" {
			if _, ok := q.Conditions[marker]; !ok {
				q.Conditions[marker] = &Comparison{Value: nil, Operator: OpEquals}
			}
		}
	}

	for _, attr := range opts.OrAttrs {
		if strings.Contains(attr, ".") {
			return nil, gkerr.Attribute(attr, "or-grouping applies to flat attribute names only")
		}
		if _, ok := q.Conditions[attr]; !ok {
			return nil, gkerr.Attribute(attr, "or-grouped attribute has no condition")
		}
		q.OrAttrs = append(q.OrAttrs, attr)
	}

	return q, nil
}

// addFlat validates and stores one flat condition key.
func (q *SelectionQuery) addFlat(models schema.Set, attr string, cond Condition) error {
	if nested, ok := cond.(*SelectionQuery); ok {
		prop := q.Model.Property(attr)
		if prop == nil || !prop.Type.IsLink() {
			return gkerr.Attribute(attr, "subquery conditions require a link-typed attribute on class %s", q.Model.Name)
		}
		q.Conditions[attr] = nested
		return nil
	}

	prop := q.Model.Property(attr)
	if prop == nil && !schema.IsMetaAttribute(attr) {
		return gkerr.Attribute(attr, "unknown attribute for class %s", q.Model.Name)
	}
	if err := castCondition(attr, cond, prop); err != nil {
		return err
	}
	q.Conditions[attr] = cond
	return nil
}

// castCondition applies the property cast to every leaf value of a
// condition and enforces the identifier-reference shape on link values.
func castCondition(attr string, cond Condition, prop *schema.Property) error {
	switch c := cond.(type) {
	case *Comparison:
		if c.Value == nil {
			return nil
		}
		if attr == "@rid" || (prop != nil && prop.Type.IsLink()) {
			s, ok := c.Value.(string)
			if !ok || !ridShape.MatchString(s) {
				return gkerr.Attribute(attr, "expected an identifier reference, got %v", c.Value)
			}
			return nil
		}
		if prop != nil {
			cast, err := prop.CastValue(c.Value)
			if err != nil {
				return gkerr.Attribute(attr, "invalid value: %v", err)
			}
			c.Value = cast
		}
		return nil
	case *Clause:
		for _, child := range c.Children {
			if err := castCondition(attr, child, prop); err != nil {
				return err
			}
		}
		return nil
	case *SelectionQuery:
		// Nested queries were validated against their own model.
		return nil
	default:
		return gkerr.Attribute(attr, "unsupported condition type %T", cond)
	}
}

// propertyForPath resolves an attribute path across linked classes.
func propertyForPath(model *schema.Model, attr string, models schema.Set) *schema.Property {
	segments := strings.Split(attr, ".")
	current := model
	for i, seg := range segments {
		prop := current.Property(seg)
		if prop == nil {
			return nil
		}
		if i == len(segments)-1 {
			return prop
		}
		if !prop.Type.IsLink() || prop.LinkedClass == "" {
			return nil
		}
		next, ok := models.Get(prop.LinkedClass)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}
