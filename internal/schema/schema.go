// Package schema defines the class-model surface consumed by the query
// compiler and the mutation manager.
//
// The authoritative model registry lives outside this module; this package
// defines the capability types it must satisfy plus an in-memory Set rich
// enough for the CLI, the vocabulary cache and tests. Models are resolved
// from YAML schema definitions (see loader.go) or constructed directly.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// PropertyType tags the storage type of a property.
type PropertyType string

const (
	TypeString      PropertyType = "string"
	TypeInteger     PropertyType = "integer"
	TypeLong        PropertyType = "long"
	TypeBool        PropertyType = "boolean"
	TypeLink        PropertyType = "link"
	TypeLinkSet     PropertyType = "linkset"
	TypeEmbeddedSet PropertyType = "embeddedset"
	TypeEmbeddedList PropertyType = "embeddedlist"
	TypeEmbeddedMap PropertyType = "embeddedmap"
)

// IsContainer reports whether values of this type hold multiple elements.
// Container properties are matched with CONTAINS, never equality.
func (t PropertyType) IsContainer() bool {
	switch t {
	case TypeLinkSet, TypeEmbeddedSet, TypeEmbeddedList, TypeEmbeddedMap:
		return true
	}
	return false
}

// IsLink reports whether values of this type are single record references.
func (t PropertyType) IsLink() bool {
	return t == TypeLink
}

// CastFunc normalizes a raw value before it is bound into a statement or
// persisted. Casts run on condition values and on record content.
type CastFunc func(any) (any, error)

// Property describes one declared attribute of a class.
type Property struct {
	Name string

	Type PropertyType

	// LinkedClass names the class a link/linkset property points to.
	// Empty for non-reference properties.
	LinkedClass string

	// Cast, if set, is applied to every value before serialization.
	Cast CastFunc

	// Default is filled in by FormatRecord when the field is absent.
	Default any

	// Choices restricts string values to a controlled vocabulary.
	Choices []string

	// Mandatory properties must be present after defaults are applied.
	Mandatory bool
}

// metaAttributes are identity/type attributes accepted as condition keys on
// every class without being declared properties.
var metaAttributes = map[string]bool{
	"@rid":   true,
	"@class": true,
	"@this":  true,
}

// IsMetaAttribute reports whether attr is an identity/type meta-attribute.
func IsMetaAttribute(attr string) bool {
	return metaAttributes[attr]
}

// Model describes one vertex or edge class: its declared properties, the
// flattened list of classes it inherits from, and record formatting.
type Model struct {
	Name string

	// IsEdge marks edge classes; their records consume out/in endpoints.
	IsEdge bool

	// inherits is the flattened (transitive) superclass list.
	inherits []string

	properties map[string]*Property
}

// NewModel constructs a model from its parts. The inherits slice must
// already be flattened; props are keyed by Property.Name.
func NewModel(name string, isEdge bool, inherits []string, props []*Property) *Model {
	m := &Model{
		Name:       name,
		IsEdge:     isEdge,
		inherits:   append([]string(nil), inherits...),
		properties: make(map[string]*Property, len(props)),
	}
	for _, p := range props {
		m.properties[p.Name] = p
	}
	return m
}

// Inherits returns the flattened superclass name list.
func (m *Model) Inherits() []string {
	return m.inherits
}

// Property returns the declared property with the given name, or nil.
func (m *Model) Property(name string) *Property {
	return m.properties[name]
}

// HasProperty reports whether name is a declared property.
func (m *Model) HasProperty(name string) bool {
	_, ok := m.properties[name]
	return ok
}

// PropertyNames returns the declared property names in sorted order.
// Sorted output keeps compiled statements deterministic.
func (m *Model) PropertyNames() []string {
	names := make([]string, 0, len(m.properties))
	for name := range m.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeletionMarker returns the soft-delete timestamp property name if this
// class declares one, else the empty string.
func (m *Model) DeletionMarker() string {
	if m.HasProperty("deletedAt") {
		return "deletedAt"
	}
	return ""
}

// FormatOptions controls FormatRecord behavior.
type FormatOptions struct {
	// DropExtra silently removes fields that are not declared properties.
	// When false, unknown fields are kept as-is.
	DropExtra bool

	// AddDefaults fills declared defaults for absent fields.
	AddDefaults bool
}

// FormatRecord normalizes raw content against the model: applies casts,
// validates controlled-vocabulary choices, fills defaults and handles
// unknown fields per opts. The input map is not modified.
func (m *Model) FormatRecord(content map[string]any, opts FormatOptions) (map[string]any, error) {
	formatted := make(map[string]any, len(content))

	for field, value := range content {
		prop := m.properties[field]
		if prop == nil {
			if opts.DropExtra || strings.HasPrefix(field, "@") {
				continue
			}
			formatted[field] = value
			continue
		}
		cast, err := prop.CastValue(value)
		if err != nil {
			return nil, fmt.Errorf("format %s.%s: %w", m.Name, field, err)
		}
		formatted[field] = cast
	}

	if opts.AddDefaults {
		for name, prop := range m.properties {
			if _, ok := formatted[name]; !ok && prop.Default != nil {
				formatted[name] = prop.Default
			}
		}
	}

	for name, prop := range m.properties {
		if !prop.Mandatory {
			continue
		}
		if _, ok := formatted[name]; !ok {
			return nil, fmt.Errorf("format %s: missing mandatory property %s", m.Name, name)
		}
	}

	return formatted, nil
}

// CastValue applies the property cast (if any) and validates choices.
// Nil values pass through untouched.
func (p *Property) CastValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if p.Cast != nil {
		cast, err := p.Cast(value)
		if err != nil {
			return nil, fmt.Errorf("cast %s: %w", p.Name, err)
		}
		value = cast
	}
	if len(p.Choices) > 0 {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("property %s expects one of its choices, got %T", p.Name, value)
		}
		for _, choice := range p.Choices {
			if s == choice {
				return value, nil
			}
		}
		return nil, fmt.Errorf("property %s: %q is not an allowed term", p.Name, s)
	}
	return value, nil
}

// Set is an in-memory model registry keyed by class name.
type Set map[string]*Model

// Get returns the model with the given name. Lookup is case-insensitive,
// matching the loose casing of inbound query targets.
func (s Set) Get(name string) (*Model, bool) {
	if m, ok := s[name]; ok {
		return m, true
	}
	for n, m := range s {
		if strings.EqualFold(n, name) {
			return m, true
		}
	}
	return nil, false
}

// Add registers a model, replacing any previous model of the same name.
func (s Set) Add(m *Model) {
	s[m.Name] = m
}

// Names returns all registered class names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
