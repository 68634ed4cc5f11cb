// Package schema defines the declarative descriptor a runtime type is
// compiled from, its wire format, and the attribute projections derived
// from it.
package schema

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// Descriptor is the declarative, persisted representation of a runtime type.
//
// A Descriptor is not safe for concurrent mutation. Attributes and settings
// are reached through accessors so that cached projections are dropped
// whenever they are reassigned.
type Descriptor struct {
	// ID is the immutable primary key of the descriptor.
	ID string

	// Name is the type name. Canonicalized (singular, CamelCase) on save.
	Name string

	// Group is the plural collection name. Defaults to the tableized name.
	Group string

	// PrimaryKey names the natural-key attribute. Defaults to the first attribute.
	PrimaryKey string

	// Validations maps validator kinds to rule parameters.
	Validations Rules

	// Callbacks maps lifecycle events to handler references.
	Callbacks Rules

	// Translations maps locale-scoped translation keys to localized values.
	Translations map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time

	// Redefine is set by normalization when the compiled shape is stale.
	// It lives for one save cycle and is never persisted.
	Redefine bool

	attributes Attributes
	settings   Settings
	proj       *projections
}

// Settings holds optional sub-configuration of a descriptor.
type Settings struct {
	I18nAttributes   NameList `json:"i18n_attributes,omitzero" yaml:"i18n_attributes,omitempty"`
	PublicAttributes NameList `json:"public_attributes,omitzero" yaml:"public_attributes,omitempty"`
	CSVAttributes    NameList `json:"csv_attributes,omitzero" yaml:"csv_attributes,omitempty"`
	StubAttributes   NameList `json:"stub_attributes,omitzero" yaml:"stub_attributes,omitempty"`
}

// IsZero reports whether no setting is present.
func (s Settings) IsZero() bool {
	return s.I18nAttributes == nil && s.PublicAttributes == nil &&
		s.CSVAttributes == nil && s.StubAttributes == nil
}

func (s Settings) clone() Settings {
	return Settings{
		I18nAttributes:   s.I18nAttributes.clone(),
		PublicAttributes: s.PublicAttributes.clone(),
		CSVAttributes:    s.CSVAttributes.clone(),
		StubAttributes:   s.StubAttributes.clone(),
	}
}

// NewDescriptor creates a descriptor with a name and attributes.
func NewDescriptor(name string, attributes Attributes) *Descriptor {
	d := &Descriptor{Name: name}
	d.SetAttributes(attributes)
	return d
}

// Attributes returns a copy of the declared attributes in order. Edits
// take effect only through SetAttributes.
func (d *Descriptor) Attributes() Attributes {
	return d.attributes.Clone()
}

// SetAttributes replaces the declared attributes.
func (d *Descriptor) SetAttributes(a Attributes) {
	d.attributes = a.Clone()
	d.proj = nil
}

// Settings returns the descriptor settings.
func (d *Descriptor) Settings() Settings {
	return d.settings
}

// SetSettings replaces the descriptor settings.
func (d *Descriptor) SetSettings(s Settings) {
	d.settings = s
	d.proj = nil
}

// IsStatic reports whether the descriptor binds to a pre-existing type.
func (d *Descriptor) IsStatic() bool {
	return d.attributes.Has(StaticKey)
}

// meta is the serialized body of a descriptor, without identity and timestamps.
type meta struct {
	Name         string         `json:"name" yaml:"name"`
	Group        string         `json:"group,omitempty" yaml:"group,omitempty"`
	PrimaryKey   string         `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Attributes   Attributes     `json:"attributes" yaml:"attributes"`
	Validations  Rules          `json:"validations,omitempty" yaml:"validations,omitempty"`
	Callbacks    Rules          `json:"callbacks,omitempty" yaml:"callbacks,omitempty"`
	Translations map[string]any `json:"translations,omitempty" yaml:"translations,omitempty"`
	Settings     Settings       `json:"settings,omitzero" yaml:"settings,omitempty"`
}

func (d *Descriptor) meta() meta {
	return meta{
		Name:         d.Name,
		Group:        d.Group,
		PrimaryKey:   d.PrimaryKey,
		Attributes:   d.attributes,
		Validations:  d.Validations,
		Callbacks:    d.Callbacks,
		Translations: d.Translations,
		Settings:     d.settings,
	}
}

func (d *Descriptor) applyMeta(m meta) {
	d.Name = m.Name
	d.Group = m.Group
	d.PrimaryKey = m.PrimaryKey
	d.Validations = m.Validations
	d.Callbacks = m.Callbacks
	d.Translations = m.Translations
	d.attributes = m.Attributes
	d.settings = m.Settings
	d.proj = nil
}

// MarshalMeta encodes the descriptor body as JSON. The encoding is
// canonical: equal descriptors produce equal bytes.
func (d *Descriptor) MarshalMeta() ([]byte, error) {
	return json.Marshal(d.meta())
}

// UnmarshalMeta replaces the descriptor body from JSON produced by MarshalMeta.
func (d *Descriptor) UnmarshalMeta(data []byte) error {
	var m meta
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("decode meta: %w", err)
	}
	d.applyMeta(m)
	return nil
}

// Fingerprint returns a BLAKE2b-256 digest of the canonical descriptor body.
func (d *Descriptor) Fingerprint() string {
	data, err := d.MarshalMeta()
	if err != nil {
		// Values that cannot be encoded never compare equal to anything.
		return "unencodable:" + err.Error()
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy of the descriptor. Cached projections are not copied.
func (d *Descriptor) Clone() *Descriptor {
	out := &Descriptor{
		ID:         d.ID,
		Name:       d.Name,
		Group:      d.Group,
		PrimaryKey: d.PrimaryKey,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		Redefine:   d.Redefine,
		attributes: d.attributes.Clone(),
		settings:   d.settings.clone(),
	}
	out.Validations = cloneRules(d.Validations)
	out.Callbacks = cloneRules(d.Callbacks)
	if d.Translations != nil {
		out.Translations = cloneValue(d.Translations).(map[string]any)
	}
	return out
}

type descriptorJSON struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
	meta
}

// MarshalJSON encodes the full descriptor including identity and timestamps.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptorJSON{
		ID:        d.ID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		meta:      d.meta(),
	})
}

// UnmarshalJSON decodes a full descriptor.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var v descriptorJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	d.ID = v.ID
	d.CreatedAt = v.CreatedAt
	d.UpdatedAt = v.UpdatedAt
	d.applyMeta(v.meta)
	return nil
}

type descriptorYAML struct {
	ID   string `yaml:"id,omitempty"`
	meta `yaml:",inline"`
}

// MarshalYAML encodes the descriptor as a YAML document.
func (d *Descriptor) MarshalYAML() (any, error) {
	return descriptorYAML{ID: d.ID, meta: d.meta()}, nil
}

// UnmarshalYAML decodes a descriptor from a YAML document.
func (d *Descriptor) UnmarshalYAML(node *yaml.Node) error {
	var v descriptorYAML
	if err := node.Decode(&v); err != nil {
		return err
	}
	d.ID = v.ID
	d.applyMeta(v.meta)
	return nil
}

func cloneRules(r Rules) Rules {
	if r == nil {
		return nil
	}
	out := make(Rules, len(r))
	for i, e := range r {
		out[i] = Pair[any]{Key: e.Key, Value: cloneValue(e.Value)}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}
