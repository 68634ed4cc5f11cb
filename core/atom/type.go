// Package atom is the generic record machinery behind runtime types.
// A Type interprets a compiled shape; a Record is one instance of it.
package atom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/typeforge/core/binding"
	"github.com/artpar/typeforge/core/convention"
	"github.com/google/uuid"
)

var (
	// ErrNoType is returned when a record is used without a runtime type.
	ErrNoType = errors.New("atom has no type")

	// ErrUnknownAttribute is returned when setting an undeclared attribute.
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// DefaultLocale is used when a type is built without one.
const DefaultLocale = "en"

// Lookup answers uniqueness queries against stored records.
type Lookup interface {
	Exists(ctx context.Context, scope Scope, field string, value any, exceptID string) (bool, error)
}

// Scope is the default filter of a type's records.
type Scope struct {
	Field string
	Value string
}

// IsZero reports whether the scope filters nothing.
func (s Scope) IsZero() bool {
	return s.Field == ""
}

// Matches reports whether r falls in the scope.
func (s Scope) Matches(r *Record) bool {
	switch s.Field {
	case "":
		return true
	case convention.ScopeField:
		return r.ElementID == s.Value
	}
	v, ok := r.data[s.Field]
	return ok && fmt.Sprint(v) == s.Value
}

// Type is a runtime type built from a compiled shape.
type Type struct {
	shape         convention.Shape
	defaultLocale string
	lookup        Lookup
	now           func() time.Time
}

// NewType builds a type from shape. lookup may be nil, in which case
// uniqueness checks always pass.
func NewType(shape convention.Shape, defaultLocale string, lookup Lookup) *Type {
	if defaultLocale == "" {
		defaultLocale = DefaultLocale
	}
	return &Type{
		shape:         shape,
		defaultLocale: defaultLocale,
		lookup:        lookup,
		now:           time.Now,
	}
}

// Name returns the type name.
func (t *Type) Name() string { return t.shape.TypeName }

// Shape returns the shape the type interprets.
func (t *Type) Shape() convention.Shape { return t.shape }

// StoreAccessor returns the persisted attributes.
func (t *Type) StoreAccessor() []string { return t.shape.FieldNames() }

// AttrAccessor returns the in-memory-only attributes.
func (t *Type) AttrAccessor() []string { return append([]string(nil), t.shape.Stubs...) }

// Localize returns the attributes holding one value per locale.
func (t *Type) Localize() []string { return append([]string(nil), t.shape.Localized...) }

// DefaultScope returns the filter applied to every query of the type.
func (t *Type) DefaultScope() Scope {
	return Scope{Field: t.shape.Scope.Field, Value: t.shape.Scope.Value}
}

// Validators returns the validator bindings of the type.
func (t *Type) Validators() []binding.Binding {
	return binding.Validators(t.shape.Bindings)
}

// Callbacks returns the callback bindings fired at event.
func (t *Type) Callbacks(event binding.Kind) []binding.Binding {
	return binding.Callbacks(t.shape.Bindings, event)
}

// New creates a record of the type with a fresh id and the given values.
func (t *Type) New(values map[string]any) (*Record, error) {
	r := &Record{
		ID:        uuid.New().String(),
		ElementID: t.shape.Scope.Value,
		typ:       t,
		locale:    t.defaultLocale,
		data:      make(map[string]any),
		stubs:     make(map[string]any),
	}

	var errs []error
	for _, name := range sortedKeys(values) {
		if err := r.Set(name, values[name]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Adopt binds a stored record to the type. Records of another scope are
// rejected.
func (t *Type) Adopt(r *Record) (*Record, error) {
	if !t.DefaultScope().Matches(r) {
		return nil, fmt.Errorf("record %s is not a %s", r.ID, t.Name())
	}
	r.typ = t
	if r.locale == "" {
		r.locale = t.defaultLocale
	}
	if r.stubs == nil {
		r.stubs = make(map[string]any)
	}
	return r, nil
}

// kind classifies an attribute name of the type.
func (t *Type) kind(name string) attrKind {
	switch {
	case t.shape.HasField(name) && t.shape.IsLocalized(name):
		return attrLocalized
	case t.shape.HasField(name):
		return attrField
	case t.shape.HasStub(name):
		return attrStub
	case strings.HasSuffix(name, confirmationSuffix):
		base := strings.TrimSuffix(name, confirmationSuffix)
		if t.shape.HasField(base) || t.shape.HasStub(base) {
			return attrStub
		}
	}
	return attrUnknown
}

type attrKind int

const (
	attrUnknown attrKind = iota
	attrField
	attrLocalized
	attrStub
)

const confirmationSuffix = "_confirmation"
