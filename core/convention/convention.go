// Package convention derives defaults from minimal descriptors.
// It applies naming conventions and expands a descriptor into the shape
// a runtime type is built from.
package convention

import (
	"github.com/artpar/typeforge/core/binding"
	"github.com/artpar/typeforge/core/schema"
)

// ScopeField is the record field holding the id of the owning descriptor.
const ScopeField = "element_id"

// Shape is the fully-derived, data-only form of a runtime type.
// It is interpreted by the generic record machinery; nothing is generated.
type Shape struct {
	// TypeName is the registry name of the type.
	TypeName string

	// Owner is the id of the descriptor the type was compiled from.
	// Empty for static types.
	Owner string

	// Group is the collection name.
	Group string

	// PrimaryKey is the natural-key field.
	PrimaryKey string

	// Fields are the persisted fields in declaration order.
	Fields []Field

	// Stubs are in-memory-only accessors.
	Stubs []string

	// Localized fields hold one value per locale.
	Localized []string

	// Public and CSV are the presentation projections.
	Public []string
	CSV    []string

	// Bindings are the attached validators and callbacks.
	Bindings []binding.Binding

	// Scope restricts instances to the owning descriptor.
	Scope Scope

	// Fingerprint identifies the descriptor state the shape was derived from.
	Fingerprint string

	// Static marks a type supplied from outside instead of synthesized.
	Static bool
}

// Field is a persisted field of a shape.
type Field struct {
	Name string
	Type string
}

// Scope is a default filter: instances whose Field equals Value.
type Scope struct {
	Field string
	Value string
}

// IsZero reports whether the scope filters nothing.
func (s Scope) IsZero() bool {
	return s.Field == ""
}

// FieldNames returns the persisted field names.
func (s Shape) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// HasField reports whether name is a persisted field.
func (s Shape) HasField(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// HasStub reports whether name is a stub accessor.
func (s Shape) HasStub(name string) bool {
	for _, n := range s.Stubs {
		if n == name {
			return true
		}
	}
	return false
}

// IsLocalized reports whether name holds per-locale values.
func (s Shape) IsLocalized(name string) bool {
	for _, n := range s.Localized {
		if n == name {
			return true
		}
	}
	return false
}

// WithBindings returns a copy of the shape with bindings replaced.
func (s Shape) WithBindings(bindings []binding.Binding) Shape {
	s.Bindings = append([]binding.Binding(nil), bindings...)
	return s
}

// Normalize applies naming defaults to a descriptor and sets its Redefine
// flag by comparing the result with prev, the last committed state.
//
//   - Group defaults to the tableized name.
//   - PrimaryKey defaults to the first declared attribute.
//   - Name becomes the singular CamelCase type name.
//   - Attribute tags are canonicalized.
//
// Normalize is idempotent.
func Normalize(d *schema.Descriptor, prev *schema.Descriptor) {
	if d.Group == "" {
		d.Group = Tableize(d.Name)
	}
	if d.PrimaryKey == "" {
		d.PrimaryKey = firstAttribute(d.Attributes())
	}
	d.Name = Classify(d.Name)

	attrs, changed := d.Attributes(), false
	for i, a := range attrs {
		if tag := schema.CanonicalType(a.Value); tag != a.Value {
			attrs[i].Value = tag
			changed = true
		}
	}
	if changed {
		d.SetAttributes(attrs)
	}

	d.Redefine = prev == nil || prev.Fingerprint() != d.Fingerprint()
}

func firstAttribute(attrs schema.Attributes) string {
	for _, a := range attrs {
		if a.Key != schema.StaticKey {
			return a.Key
		}
	}
	return ""
}

// Derive expands a normalized descriptor and its compiled bindings into a shape.
func Derive(d *schema.Descriptor, bindings []binding.Binding) Shape {
	persistent := d.PersistentAttributes()
	fields := make([]Field, 0, len(persistent))
	attrs := d.Attributes()
	for _, name := range persistent {
		tag, _ := attrs.Get(name)
		fields = append(fields, Field{Name: name, Type: tag})
	}

	return Shape{
		TypeName:    d.Name,
		Owner:       d.ID,
		Group:       d.Group,
		PrimaryKey:  d.PrimaryKey,
		Fields:      fields,
		Stubs:       d.StubAttributes(),
		Localized:   d.I18nAttributes(),
		Public:      d.PublicAttributes(),
		CSV:         d.CSVAttributes(),
		Bindings:    append([]binding.Binding(nil), bindings...),
		Scope:       Scope{Field: ScopeField, Value: d.ID},
		Fingerprint: d.Fingerprint(),
		Static:      d.IsStatic(),
	}
}

// StaticShape describes an externally supplied type with the given fields.
func StaticShape(name string, fields ...string) Shape {
	s := Shape{
		TypeName: name,
		Group:    Tableize(name),
		Static:   true,
	}
	for _, f := range fields {
		s.Fields = append(s.Fields, Field{Name: f, Type: schema.TypeString})
	}
	if len(fields) > 0 {
		s.PrimaryKey = fields[0]
	}
	s.Public = s.FieldNames()
	s.CSV = s.FieldNames()
	return s
}
