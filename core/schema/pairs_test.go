package schema

import (
	"encoding/json"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPairs_JSONKeepsOrder(t *testing.T) {
	var attrs Attributes
	if err := json.Unmarshal([]byte(`{"zeta":"String","alpha":"Integer","static":true}`), &attrs); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if keys := attrs.Keys(); !reflect.DeepEqual(keys, []string{"zeta", "alpha", "static"}) {
		t.Errorf("keys = %v, want [zeta alpha static]", keys)
	}
	if v, _ := attrs.Get("static"); v != "true" {
		t.Errorf("static = %q, want scalar coerced to \"true\"", v)
	}

	out, err := json.Marshal(attrs)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if want := `{"zeta":"String","alpha":"Integer","static":"true"}`; string(out) != want {
		t.Errorf("Marshal = %s, want %s", out, want)
	}
}

func TestPairs_YAMLKeepsOrder(t *testing.T) {
	var rules Rules
	src := "validates_presence_of: \":email\"\nvalidates_length_of:\n  attributes: [name]\n  maximum: 10\n"
	if err := yaml.Unmarshal([]byte(src), &rules); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if keys := rules.Keys(); !reflect.DeepEqual(keys, []string{"validates_presence_of", "validates_length_of"}) {
		t.Errorf("keys = %v", keys)
	}

	out, err := yaml.Marshal(rules)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Rules
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(back.Keys(), rules.Keys()) {
		t.Errorf("order lost through YAML: %v", back.Keys())
	}
}

func TestPairs_RejectsDuplicates(t *testing.T) {
	var attrs Attributes
	if err := json.Unmarshal([]byte(`{"a":"String","a":"Integer"}`), &attrs); err == nil {
		t.Error("JSON duplicate key accepted")
	}
	if err := yaml.Unmarshal([]byte("a: String\na: Integer\n"), &attrs); err == nil {
		t.Error("YAML duplicate key accepted")
	}
}

func TestPairs_RejectsNonScalarTag(t *testing.T) {
	var attrs Attributes
	if err := json.Unmarshal([]byte(`{"a":{"b":1}}`), &attrs); err == nil {
		t.Error("object accepted as a data-type tag")
	}
}

func TestPairs_SetAndClone(t *testing.T) {
	p := Attributes{{Key: "a", Value: "String"}}
	c := p.Clone()

	c.Set("a", "Integer")
	c.Set("b", "Boolean")

	if v, _ := p.Get("a"); v != "String" {
		t.Errorf("Set on clone changed original: a = %q", v)
	}
	if !reflect.DeepEqual(c.Keys(), []string{"a", "b"}) {
		t.Errorf("clone keys = %v, want [a b]", c.Keys())
	}
	if !c.Has("b") || p.Has("b") {
		t.Error("Has reports the wrong entries")
	}

	var nilPairs Attributes
	if nilPairs.Clone() != nil {
		t.Error("Clone of nil is not nil")
	}
}
