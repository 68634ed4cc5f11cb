package convention

import (
	"reflect"
	"testing"

	"github.com/artpar/typeforge/core/binding"
	"github.com/artpar/typeforge/core/schema"
)

func TestNormalize_Defaults(t *testing.T) {
	d := schema.NewDescriptor("user profiles", schema.Attributes{
		{Key: "email", Value: "string"},
		{Key: "age", Value: "int"},
	})

	Normalize(d, nil)

	if d.Name != "UserProfile" {
		t.Errorf("Name = %q, want UserProfile", d.Name)
	}
	if d.Group != "user_profiles" {
		t.Errorf("Group = %q, want user_profiles", d.Group)
	}
	if d.PrimaryKey != "email" {
		t.Errorf("PrimaryKey = %q, want email", d.PrimaryKey)
	}
	want := schema.Attributes{{Key: "email", Value: schema.TypeString}, {Key: "age", Value: schema.TypeInteger}}
	if !reflect.DeepEqual(d.Attributes(), want) {
		t.Errorf("attributes = %v, want canonical tags", d.Attributes())
	}
	if !d.Redefine {
		t.Error("Redefine not set for a first save")
	}
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	d := schema.NewDescriptor("User", schema.Attributes{
		{Key: "email", Value: schema.TypeString},
		{Key: "login", Value: schema.TypeString},
	})
	d.Group = "accounts"
	d.PrimaryKey = "login"

	Normalize(d, nil)

	if d.Group != "accounts" || d.PrimaryKey != "login" {
		t.Errorf("explicit values overwritten: %s/%s", d.Group, d.PrimaryKey)
	}
}

func TestNormalize_SkipsStaticKeyForPrimaryKey(t *testing.T) {
	d := schema.NewDescriptor("Account", schema.Attributes{
		{Key: schema.StaticKey, Value: "true"},
		{Key: "number", Value: schema.TypeString},
	})

	Normalize(d, nil)

	if d.PrimaryKey != "number" {
		t.Errorf("PrimaryKey = %q, want number", d.PrimaryKey)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	d := schema.NewDescriptor("users", schema.Attributes{{Key: "email", Value: "STRING"}})
	Normalize(d, nil)
	first := d.Fingerprint()

	prev := d.Clone()
	Normalize(d, prev)

	if d.Fingerprint() != first {
		t.Error("second Normalize changed the descriptor")
	}
	if d.Redefine {
		t.Error("Redefine set for an unchanged descriptor")
	}
}

func TestNormalize_Redefine(t *testing.T) {
	prev := schema.NewDescriptor("User", schema.Attributes{{Key: "email", Value: schema.TypeString}})
	Normalize(prev, nil)

	tests := []struct {
		name   string
		mutate func(d *schema.Descriptor)
		want   bool
	}{
		{"unchanged", func(d *schema.Descriptor) {}, false},
		{"renamed", func(d *schema.Descriptor) { d.Name = "Member" }, true},
		{"attribute added", func(d *schema.Descriptor) {
			attrs := d.Attributes().Clone()
			attrs.Set("name", schema.TypeString)
			d.SetAttributes(attrs)
		}, true},
		{"validation added", func(d *schema.Descriptor) {
			d.Validations = schema.Rules{{Key: "validates_presence_of", Value: "email"}}
		}, true},
		{"timestamps only", func(d *schema.Descriptor) { d.UpdatedAt = d.UpdatedAt.AddDate(0, 0, 1) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := prev.Clone()
			tt.mutate(d)
			Normalize(d, prev)
			if d.Redefine != tt.want {
				t.Errorf("Redefine = %v, want %v", d.Redefine, tt.want)
			}
		})
	}
}

func TestDerive(t *testing.T) {
	d := schema.NewDescriptor("User", schema.Attributes{
		{Key: "email", Value: schema.TypeString},
		{Key: "bio", Value: schema.TypeText},
		{Key: "password", Value: schema.TypeStub},
	})
	d.ID = "e-1"
	d.SetSettings(schema.Settings{
		I18nAttributes:   schema.NameList{"bio"},
		PublicAttributes: schema.NameList{"email"},
	})
	Normalize(d, nil)

	bindings, err := binding.Compile(schema.Rules{{Key: "validates_presence_of", Value: ":email"}}, nil)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	s := Derive(d, bindings)

	if s.TypeName != "User" || s.Owner != "e-1" || s.Group != "users" || s.PrimaryKey != "email" {
		t.Errorf("shape identity = %s/%s/%s/%s", s.TypeName, s.Owner, s.Group, s.PrimaryKey)
	}
	wantFields := []Field{{Name: "email", Type: schema.TypeString}, {Name: "bio", Type: schema.TypeText}}
	if !reflect.DeepEqual(s.Fields, wantFields) {
		t.Errorf("Fields = %v, want %v", s.Fields, wantFields)
	}
	if !reflect.DeepEqual(s.Stubs, []string{"password"}) {
		t.Errorf("Stubs = %v", s.Stubs)
	}
	if !reflect.DeepEqual(s.Localized, []string{"bio"}) || !s.IsLocalized("bio") {
		t.Errorf("Localized = %v", s.Localized)
	}
	if !reflect.DeepEqual(s.Public, []string{"email"}) {
		t.Errorf("Public = %v", s.Public)
	}
	if !reflect.DeepEqual(s.CSV, []string{"email", "bio"}) {
		t.Errorf("CSV = %v", s.CSV)
	}
	if len(s.Bindings) != 1 {
		t.Errorf("Bindings = %d, want 1", len(s.Bindings))
	}
	if s.Scope != (Scope{Field: ScopeField, Value: "e-1"}) {
		t.Errorf("Scope = %+v", s.Scope)
	}
	if s.Fingerprint != d.Fingerprint() || s.Static {
		t.Error("Fingerprint or Static not derived")
	}
	if !s.HasField("email") || s.HasField("password") || !s.HasStub("password") {
		t.Error("HasField/HasStub misreport")
	}
}

func TestStaticShape(t *testing.T) {
	s := StaticShape("Account", "email", "plan")

	if !s.Static || s.Owner != "" {
		t.Error("static shape has an owner or is not static")
	}
	if s.Group != "accounts" || s.PrimaryKey != "email" {
		t.Errorf("Group/PrimaryKey = %s/%s", s.Group, s.PrimaryKey)
	}
	if !reflect.DeepEqual(s.FieldNames(), []string{"email", "plan"}) {
		t.Errorf("FieldNames = %v", s.FieldNames())
	}
	if !s.Scope.IsZero() {
		t.Error("static shape is scoped")
	}

	withBindings := s.WithBindings([]binding.Binding{{Kind: binding.AfterSave, Class: binding.ClassCallback}})
	if len(withBindings.Bindings) != 1 || len(s.Bindings) != 0 {
		t.Error("WithBindings modified the receiver")
	}
}
