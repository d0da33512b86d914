package schema

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Built-in cast functions, addressable by name from schema definitions.
//
// Casts normalize values the same way on write (FormatRecord) and on read
// (condition values), so a record written as "Breast Cancer" and a query
// for "breast cancer " land on the same indexed form.

var titleCaser = cases.Title(language.English, cases.NoLower)

// TrimLower trims surrounding whitespace and lowercases a string value.
// The default cast for indexed free-text properties.
func TrimLower(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return strings.ToLower(strings.TrimSpace(s)), nil
}

// Trim trims surrounding whitespace from a string value.
func Trim(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return strings.TrimSpace(s), nil
}

// ClassName normalizes a class-name-valued string: trimmed, title-cased
// per word so "alias of" and "ALIAS OF" both resolve to "Alias Of".
func ClassName(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return titleCaser.String(strings.TrimSpace(s)), nil
}

// castsByName maps declared cast names to functions.
var castsByName = map[string]CastFunc{
	"trimLower": TrimLower,
	"trim":      Trim,
	"className": ClassName,
}

// CastByName resolves a built-in cast function by its declared name.
func CastByName(name string) (CastFunc, error) {
	if fn, ok := castsByName[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown cast function %q", name)
}
