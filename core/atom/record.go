package atom

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"github.com/artpar/typeforge/core/schema"
)

// Record is one instance of a runtime type. Persisted attributes live in
// data; stub attributes are kept in memory only.
type Record struct {
	ID        string
	ElementID string
	CreatedAt time.Time
	UpdatedAt time.Time

	typ    *Type
	locale string
	data   map[string]any
	stubs  map[string]any
}

// Restore rebuilds a stored record. It has no type until adopted.
func Restore(id, elementID string, data map[string]any, createdAt, updatedAt time.Time) *Record {
	return &Record{
		ID:        id,
		ElementID: elementID,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		data:      cloneData(data),
		stubs:     make(map[string]any),
	}
}

// Type returns the runtime type of the record, nil when not adopted.
func (r *Record) Type() *Type { return r.typ }

// Locale returns the locale localized attributes are read and written in.
func (r *Record) Locale() string { return r.locale }

// SetLocale switches the locale of localized attributes.
func (r *Record) SetLocale(locale string) { r.locale = locale }

// Get returns the value of an attribute.
func (r *Record) Get(name string) (any, bool) {
	if r.typ == nil {
		v, ok := r.data[name]
		return v, ok
	}

	switch r.typ.kind(name) {
	case attrField:
		v, ok := r.data[name]
		return v, ok
	case attrLocalized:
		return r.localized(name)
	case attrStub:
		v, ok := r.stubs[name]
		return v, ok
	}
	return nil, false
}

func (r *Record) localized(name string) (any, bool) {
	raw, ok := r.data[name]
	if !ok {
		return nil, false
	}
	values, ok := raw.(map[string]any)
	if !ok {
		return raw, true
	}
	if v, ok := values[r.locale]; ok {
		return v, true
	}
	v, ok := values[r.typ.defaultLocale]
	return v, ok
}

// Set assigns an attribute. Localized attributes are set for the current
// locale.
func (r *Record) Set(name string, value any) error {
	if r.typ == nil {
		return ErrNoType
	}

	switch r.typ.kind(name) {
	case attrField:
		r.data[name] = value
	case attrLocalized:
		values, ok := r.data[name].(map[string]any)
		if !ok {
			values = make(map[string]any)
			r.data[name] = values
		}
		values[r.locale] = value
	case attrStub:
		r.stubs[name] = value
	default:
		return fmt.Errorf("%s.%s: %w", r.typ.Name(), name, ErrUnknownAttribute)
	}
	return nil
}

// Persisted returns a copy of the values written to storage.
func (r *Record) Persisted() map[string]any {
	return cloneData(r.data)
}

// Touch sets the timestamps of a record about to be saved.
func (r *Record) Touch() {
	now := time.Now().UTC()
	if r.typ != nil {
		now = r.typ.now().UTC()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

// IsUnique reports whether no other record of the type holds value in
// attribute.
func (r *Record) IsUnique(ctx context.Context, attribute string, value any) (bool, error) {
	if r.typ == nil {
		return false, ErrNoType
	}
	if r.typ.lookup == nil {
		return true, nil
	}
	exists, err := r.typ.lookup.Exists(ctx, r.typ.DefaultScope(), attribute, value, r.ID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Public returns the public attributes of the record in declaration order.
func (r *Record) Public() (schema.Pairs[any], error) {
	if r.typ == nil {
		return nil, ErrNoType
	}

	out := make(schema.Pairs[any], 0, len(r.typ.shape.Public))
	for _, name := range r.typ.shape.Public {
		v, _ := r.Get(name)
		out = append(out, schema.Pair[any]{Key: name, Value: v})
	}
	return out, nil
}

// PublicJSON renders the id and the public attributes of the record.
func (r *Record) PublicJSON() ([]byte, error) {
	public, err := r.Public()
	if err != nil {
		return nil, err
	}

	out := append(schema.Pairs[any]{{Key: "id", Value: r.ID}}, public...)
	return out.MarshalJSON()
}

// CSV renders the csv attributes of the record as one line.
func (r *Record) CSV() (string, error) {
	if r.typ == nil {
		return "", ErrNoType
	}

	row := make([]string, 0, len(r.typ.shape.CSV))
	for _, name := range r.typ.shape.CSV {
		v, _ := r.Get(name)
		if v == nil {
			row = append(row, "")
			continue
		}
		row = append(row, fmt.Sprint(v))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(row); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Clone returns a deep copy of the record bound to the same type.
func (r *Record) Clone() *Record {
	c := *r
	c.data = cloneData(r.data)
	c.stubs = cloneData(r.stubs)
	return &c
}

func cloneData(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if m, ok := v.(map[string]any); ok {
			v = cloneData(m)
		}
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
