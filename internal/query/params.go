package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bcgsc/pori-graphkb-core/internal/gkerr"
)

// Control keys recognized at the top level of a parameter structure.
// Any other key is a predicate.
const (
	keyLimit            = "limit"
	keySkip             = "skip"
	keyNeighbors        = "neighbors"
	keyOr               = "or"
	keyReturnProperties = "returnProperties"
	keyActiveOnly       = "activeOnly"
	keyCompoundSyntax   = "compoundSyntax"
)

// Normalizer flattens nested request parameters into predicate trees and
// control directives. Limits are clamped, never rejected.
type Normalizer struct {
	// MaxLimit clamps the limit directive to [1, MaxLimit].
	MaxLimit int

	// MaxNeighbors clamps the neighbors directive to [0, MaxNeighbors].
	MaxNeighbors int

	// MinWordLength is the shortest indexable text-search token.
	MinWordLength int
}

// Directives holds the control keys extracted from a parameter structure.
type Directives struct {
	Limit            int
	Skip             int
	Neighbors        int
	Or               []string
	ReturnProperties []string
	ActiveOnly       bool

	// CompoundSyntax applies dotted-path normalization to every predicate
	// key. Dotted keys are always normalized; the flag extends the
	// per-segment trimming to plain keys as well.
	CompoundSyntax bool
}

// Normalize flattens params, splits control keys from predicates and
// parses every predicate value into a Condition.
func (n *Normalizer) Normalize(params map[string]any) (map[string]Condition, Directives, error) {
	directives := Directives{
		Limit:      n.MaxLimit,
		ActiveOnly: true,
	}

	flat := FlattenParams(params)

	// Control keys are extracted first: compoundSyntax applies to the
	// remaining predicate keys.
	conditions := make(map[string]Condition, len(flat))
	predicates := make(map[string]any, len(flat))
	for path, raw := range flat {
		if !strings.Contains(path, ".") && isControlKey(path) {
			if err := n.applyControl(&directives, path, raw); err != nil {
				return nil, Directives{}, err
			}
			continue
		}
		predicates[path] = raw
	}

	for path, raw := range predicates {
		attr := path
		if directives.CompoundSyntax || strings.Contains(path, ".") {
			attr = compoundPath(path)
		}
		value, err := predicateString(attr, raw)
		if err != nil {
			return nil, Directives{}, err
		}
		cond, err := n.ParseValue(attr, value)
		if err != nil {
			return nil, Directives{}, err
		}
		conditions[attr] = cond
	}

	return conditions, directives, nil
}

// FlattenParams recursively flattens a nested parameter structure into
// (attribute path, raw value) pairs. Path segments are joined with dots.
// Arrays are leaf values, not descended into.
func FlattenParams(params map[string]any) map[string]any {
	flat := make(map[string]any)
	flatten("", params, flat)
	return flat
}

func flatten(prefix string, params map[string]any, out map[string]any) {
	for key, value := range params {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(path, nested, out)
			continue
		}
		out[path] = value
	}
}

func isControlKey(key string) bool {
	switch key {
	case keyLimit, keySkip, keyNeighbors, keyOr, keyReturnProperties,
		keyActiveOnly, keyCompoundSyntax:
		return true
	}
	return false
}

func (n *Normalizer) applyControl(d *Directives, key string, raw any) error {
	switch key {
	case keyLimit:
		v, err := controlInt(key, raw)
		if err != nil {
			return err
		}
		d.Limit = clamp(v, 1, n.MaxLimit)
	case keySkip:
		v, err := controlInt(key, raw)
		if err != nil {
			return err
		}
		if v < 0 {
			v = 0
		}
		d.Skip = v
	case keyNeighbors:
		v, err := controlInt(key, raw)
		if err != nil {
			return err
		}
		d.Neighbors = clamp(v, 0, n.MaxNeighbors)
	case keyOr:
		d.Or = splitNameList(raw)
	case keyReturnProperties:
		d.ReturnProperties = splitNameList(raw)
	case keyActiveOnly:
		v, err := controlBool(key, raw)
		if err != nil {
			return err
		}
		d.ActiveOnly = v
	case keyCompoundSyntax:
		v, err := controlBool(key, raw)
		if err != nil {
			return err
		}
		d.CompoundSyntax = v
	}
	return nil
}

func controlInt(key string, raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, gkerr.Attribute(key, "expected an integer, got %q", v)
		}
		return parsed, nil
	default:
		return 0, gkerr.Attribute(key, "expected an integer, got %T", raw)
	}
}

func controlBool(key string, raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, gkerr.Attribute(key, "expected a boolean, got %q", v)
		}
		return parsed, nil
	default:
		return false, gkerr.Attribute(key, "expected a boolean, got %T", raw)
	}
}

func splitNameList(raw any) []string {
	s := fmt.Sprint(raw)
	var names []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// predicateString checks that a predicate value is a single string. An
// array means the same key was supplied twice.
func predicateString(attr string, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []any, []string:
		return "", gkerr.Attribute(attr, "parameter supplied more than once")
	case nil:
		return "", gkerr.Attribute(attr, "parameter has no value")
	default:
		return fmt.Sprint(v), nil
	}
}

// compoundPath normalizes a raw key into its canonical dotted form:
// whitespace around each dot-separated segment is trimmed and the
// segments rejoined. A key without dots is a single segment.
func compoundPath(raw string) string {
	segments := strings.Split(raw, ".")
	for i, seg := range segments {
		segments[i] = strings.TrimSpace(seg)
	}
	return strings.Join(segments, ".")
}

// ParseValue parses the value syntax of one predicate into a Condition.
//
// Syntax: sub-values separated by | are OR-ed; a leading ! negates; a
// leading ~ switches to text-contains, splitting the remaining text on
// whitespace into an AND of per-token comparisons; the literal "null"
// maps to an actual null value.
func (n *Normalizer) ParseValue(attr, value string) (Condition, error) {
	parts := strings.Split(value, "|")
	conditions := make([]Condition, 0, len(parts))
	for _, part := range parts {
		cond, err := n.parseSubValue(attr, part)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	switch len(conditions) {
	case 0:
		return nil, gkerr.Attribute(attr, "value has no alternatives")
	case 1:
		return conditions[0], nil
	default:
		return NewClause(LogicOr, conditions...)
	}
}

func (n *Normalizer) parseSubValue(attr, part string) (Condition, error) {
	negate := false
	if strings.HasPrefix(part, "!") {
		negate = true
		part = part[1:]
	}

	if strings.HasPrefix(part, "~") {
		return n.parseContains(attr, part[1:], negate)
	}

	if part == "" {
		return nil, gkerr.Attribute(attr, "empty value alternative")
	}
	if part == "null" {
		return &Comparison{Value: nil, Operator: OpEquals, Negate: negate}, nil
	}
	return &Comparison{Value: part, Operator: OpEquals, Negate: negate}, nil
}

// parseContains builds the text-contains form of a sub-value. Multi-token
// input becomes an AND clause of per-token comparisons; every token must
// meet the indexable minimum word length.
func (n *Normalizer) parseContains(attr, text string, negate bool) (Condition, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, gkerr.Attribute(attr, "text search requires a term")
	}
	for _, token := range tokens {
		if len(token) < n.MinWordLength {
			return nil, gkerr.Attribute(attr,
				"text search term %q is shorter than the indexable minimum (%d)", token, n.MinWordLength)
		}
	}
	if len(tokens) == 1 {
		return &Comparison{Value: tokens[0], Operator: OpContainsText, Negate: negate}, nil
	}
	children := make([]Condition, 0, len(tokens))
	for _, token := range tokens {
		children = append(children, &Comparison{Value: token, Operator: OpContainsText, Negate: negate})
	}
	return NewClause(LogicAnd, children...)
}
