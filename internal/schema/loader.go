package schema

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Definition file shape. Inheritance is declared per class and flattened at
// load time; inherited properties are merged into each subclass so every
// Model carries its full property set.
type schemaFile struct {
	Models map[string]schemaClass `yaml:"models"`
}

type schemaClass struct {
	IsEdge     bool                       `yaml:"isEdge"`
	Inherits   []string                   `yaml:"inherits"`
	Properties map[string]schemaProperty `yaml:"properties"`
}

type schemaProperty struct {
	Type        string   `yaml:"type"`
	LinkedClass string   `yaml:"linkedClass"`
	Cast        string   `yaml:"cast"`
	Default     any      `yaml:"default"`
	Choices     []string `yaml:"choices"`
	Mandatory   bool     `yaml:"mandatory"`
}

// LoadFile reads a schema definition from a YAML file.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema definition: %w", err)
	}
	return Load(data)
}

// Load parses a schema definition from YAML bytes, flattening inheritance and
// merging inherited properties into each subclass.
func Load(data []byte) (Set, error) {
	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("schema definition declares no models")
	}

	r := &resolver{src: file.Models, resolved: map[string]*resolvedClass{}}

	// Resolve in sorted order so error reporting is deterministic.
	names := make([]string, 0, len(file.Models))
	for name := range file.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	set := Set{}
	for _, name := range names {
		rc, err := r.resolve(name, nil)
		if err != nil {
			return nil, err
		}
		props := make([]*Property, 0, len(rc.props))
		for _, p := range rc.props {
			props = append(props, p)
		}
		set.Add(NewModel(name, rc.isEdge, rc.inherits, props))
	}
	return set, nil
}

type resolvedClass struct {
	isEdge   bool
	inherits []string
	props    map[string]*Property
}

type resolver struct {
	src      map[string]schemaClass
	resolved map[string]*resolvedClass
}

// resolve flattens one class, recursing into superclasses first. The stack
// tracks the active chain for cycle detection.
func (r *resolver) resolve(name string, stack []string) (*resolvedClass, error) {
	if rc, ok := r.resolved[name]; ok {
		return rc, nil
	}
	for _, seen := range stack {
		if seen == name {
			return nil, fmt.Errorf("inheritance cycle through class %s", name)
		}
	}
	fm, ok := r.src[name]
	if !ok {
		return nil, fmt.Errorf("class %s inherits unknown class", name)
	}

	rc := &resolvedClass{props: map[string]*Property{}}
	stack = append(stack, name)

	for _, parent := range fm.Inherits {
		prc, err := r.resolve(parent, stack)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", name, err)
		}
		rc.inherits = append(rc.inherits, parent)
		rc.inherits = append(rc.inherits, prc.inherits...)
		for pname, prop := range prc.props {
			rc.props[pname] = prop
		}
	}
	rc.inherits = dedupe(rc.inherits)
	rc.isEdge = fm.IsEdge

	for pname, fp := range fm.Properties {
		prop, err := buildProperty(name, pname, fp)
		if err != nil {
			return nil, err
		}
		rc.props[pname] = prop
	}

	r.resolved[name] = rc
	return rc, nil
}

func buildProperty(class, name string, fp schemaProperty) (*Property, error) {
	ptype := PropertyType(fp.Type)
	if fp.Type == "" {
		ptype = TypeString
	}
	switch ptype {
	case TypeString, TypeInteger, TypeLong, TypeBool, TypeLink,
		TypeLinkSet, TypeEmbeddedSet, TypeEmbeddedList, TypeEmbeddedMap:
	default:
		return nil, fmt.Errorf("class %s property %s: unknown type %q", class, name, fp.Type)
	}

	prop := &Property{
		Name:        name,
		Type:        ptype,
		LinkedClass: fp.LinkedClass,
		Default:     fp.Default,
		Choices:     fp.Choices,
		Mandatory:   fp.Mandatory,
	}
	if fp.Cast != "" {
		cast, err := CastByName(fp.Cast)
		if err != nil {
			return nil, fmt.Errorf("class %s property %s: %w", class, name, err)
		}
		prop.Cast = cast
	}
	return prop, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
