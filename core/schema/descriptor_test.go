package schema

import (
	"encoding/json"
	"testing"
	"time"
)

func sampleDescriptor() *Descriptor {
	d := NewDescriptor("User", Attributes{
		{Key: "email", Value: TypeString},
		{Key: "name", Value: TypeString},
		{Key: "password", Value: TypeStub},
	})
	d.ID = "e-1"
	d.Group = "users"
	d.PrimaryKey = "email"
	d.Validations = Rules{{Key: "validates_length_of", Value: map[string]any{"attributes": []any{"name"}, "maximum": 64}}}
	d.Callbacks = Rules{{Key: "after_create", Value: "user.created"}}
	d.Translations = map[string]any{"en": map[string]any{"user": map[string]any{"email": "E-mail"}}}
	d.SetSettings(Settings{PublicAttributes: NameList{"email"}})
	return d
}

func TestDescriptor_MetaRoundTrip(t *testing.T) {
	d := sampleDescriptor()

	data, err := d.MarshalMeta()
	if err != nil {
		t.Fatalf("MarshalMeta failed: %v", err)
	}

	var back Descriptor
	if err := back.UnmarshalMeta(data); err != nil {
		t.Fatalf("UnmarshalMeta failed: %v", err)
	}

	if back.Fingerprint() != d.Fingerprint() {
		t.Error("fingerprint changed through the meta encoding")
	}
	if back.ID != "" {
		t.Error("meta encoding carried the id")
	}
}

func TestDescriptor_Fingerprint(t *testing.T) {
	a := sampleDescriptor()
	b := sampleDescriptor()

	// Identity and timestamps do not contribute.
	b.ID = "e-2"
	b.CreatedAt = time.Now()
	b.Redefine = true
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint depends on identity")
	}

	tests := []struct {
		name   string
		mutate func(d *Descriptor)
	}{
		{"name", func(d *Descriptor) { d.Name = "Member" }},
		{"attribute order", func(d *Descriptor) {
			attrs := d.Attributes().Clone()
			attrs[0], attrs[1] = attrs[1], attrs[0]
			d.SetAttributes(attrs)
		}},
		{"attribute tag", func(d *Descriptor) {
			attrs := d.Attributes().Clone()
			attrs[1].Value = TypeText
			d.SetAttributes(attrs)
		}},
		{"callback", func(d *Descriptor) { d.Callbacks = nil }},
		{"settings", func(d *Descriptor) { d.SetSettings(Settings{}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sampleDescriptor()
			tt.mutate(c)
			if c.Fingerprint() == a.Fingerprint() {
				t.Errorf("changing %s kept the fingerprint", tt.name)
			}
		})
	}
}

func TestDescriptor_CloneIsDeep(t *testing.T) {
	d := sampleDescriptor()
	c := d.Clone()

	attrs := c.Attributes()
	attrs[0].Value = TypeInteger
	c.SetAttributes(attrs)
	c.Validations[0].Value.(map[string]any)["maximum"] = 1
	c.Translations["en"].(map[string]any)["user"] = "changed"

	if v, _ := d.Attributes().Get("email"); v != TypeString {
		t.Error("clone shares attributes")
	}
	if d.Validations[0].Value.(map[string]any)["maximum"] != 64 {
		t.Error("clone shares validation params")
	}
	if _, ok := d.Translations["en"].(map[string]any)["user"].(map[string]any); !ok {
		t.Error("clone shares translations")
	}
}

func TestDescriptor_JSON(t *testing.T) {
	d := sampleDescriptor()

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var back Descriptor
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.ID != "e-1" || back.Name != "User" {
		t.Errorf("decoded %s/%s", back.ID, back.Name)
	}
	if back.Fingerprint() != d.Fingerprint() {
		t.Error("JSON encoding changed the descriptor body")
	}
}

func TestDescriptor_IsStatic(t *testing.T) {
	d := NewDescriptor("Account", Attributes{{Key: StaticKey, Value: "true"}})
	if !d.IsStatic() {
		t.Error("descriptor with static attribute is not static")
	}
	if sampleDescriptor().IsStatic() {
		t.Error("plain descriptor reported static")
	}
}
