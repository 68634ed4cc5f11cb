package i18n

import (
	"reflect"
	"testing"
)

func TestNewMemory_InvalidDefault(t *testing.T) {
	if _, err := NewMemory("not a locale!"); err == nil {
		t.Error("NewMemory() should reject an invalid default locale")
	}
}

func TestMemory_StoreAndTranslate(t *testing.T) {
	m, err := NewMemory("en")
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}

	m.StoreTranslations("en", map[string]any{
		"user": map[string]any{"email": "E-mail", "name": "Name"},
	})
	m.StoreTranslations("de", map[string]any{"user.email": "E-Mail-Adresse"})

	tests := []struct {
		locale, key, want string
		ok                bool
	}{
		{"en", "user.email", "E-mail", true},
		{"de", "user.email", "E-Mail-Adresse", true},
		{"de-AT", "user.email", "E-Mail-Adresse", true},
		{"de", "user.name", "Name", true}, // falls back to default locale
		{"fr", "user.email", "E-mail", true},
		{"en", "user.missing", "", false},
	}

	for _, tt := range tests {
		got, ok := m.Translate(tt.locale, tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Translate(%q, %q) = (%q, %v), want (%q, %v)", tt.locale, tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMemory_StoreMerges(t *testing.T) {
	m, _ := NewMemory("en")
	m.StoreTranslations("en", map[string]any{"a": "1"})
	m.StoreTranslations("en", map[string]any{"b": "2", "a": "3"})

	if v, _ := m.Translate("en", "a"); v != "3" {
		t.Errorf("a = %q, want 3", v)
	}
	if v, _ := m.Translate("en", "b"); v != "2" {
		t.Errorf("b = %q, want 2", v)
	}
	if got := m.Locales(); !reflect.DeepEqual(got, []string{"en"}) {
		t.Errorf("Locales() = %v, want [en]", got)
	}
}

type recorder struct {
	calls map[string]map[string]any
}

func (r *recorder) StoreTranslations(locale string, mapping map[string]any) {
	if r.calls == nil {
		r.calls = make(map[string]map[string]any)
	}
	if r.calls[locale] == nil {
		r.calls[locale] = make(map[string]any)
	}
	for k, v := range mapping {
		r.calls[locale][k] = v
	}
}

func TestIngest_SplitsLocaleScopedKeys(t *testing.T) {
	r := &recorder{}

	Ingest(r, "en", []string{"de", "fr"}, map[string]any{
		"de.user.email": "E-Mail",
		"fr":            map[string]any{"user": map[string]any{"email": "Courriel"}},
		"title":         "Users",
		"user.email":    "E-mail",
	})

	want := map[string]map[string]any{
		"de": {"user.email": "E-Mail"},
		"fr": {"user": map[string]any{"email": "Courriel"}},
		"en": {"title": "Users", "user.email": "E-mail"},
	}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("Ingest stored %v, want %v", r.calls, want)
	}
}

func TestIngest_Empty(t *testing.T) {
	r := &recorder{}
	Ingest(r, "en", nil, nil)
	if r.calls != nil {
		t.Errorf("Ingest(nil) stored %v", r.calls)
	}
}

func TestIngest_WordsThatParseAsLanguagesStayUnscoped(t *testing.T) {
	r := &recorder{}

	Ingest(r, "en", []string{"de"}, map[string]any{
		"app.title":  "App",
		"new.label":  "New",
		"user.email": "E-mail",
		"de.title":   "Titel",
		"es.title":   "Titulo",
		"art":        map[string]any{"name": "Art"},
	})

	want := map[string]map[string]any{
		"de": {"title": "Titel"},
		"en": {
			"app.title":  "App",
			"new.label":  "New",
			"user.email": "E-mail",
			"es.title":   "Titulo",
			"art":        map[string]any{"name": "Art"},
		},
	}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("Ingest stored %v, want %v", r.calls, want)
	}
}

func TestIngest_LocalesKnownToStore(t *testing.T) {
	m, err := NewMemory("en")
	if err != nil {
		t.Fatalf("NewMemory failed: %v", err)
	}
	m.StoreTranslations("pt-BR", map[string]any{"hello": "Olá"})

	Ingest(m, "en", nil, map[string]any{
		"pt-BR.user.email": "E-mail (pt)",
		"app.title":        "App",
	})

	if v, ok := m.Translate("pt-BR", "user.email"); !ok || v != "E-mail (pt)" {
		t.Errorf("Translate(pt-BR, user.email) = %q, %v", v, ok)
	}
	if v, ok := m.Translate("en", "app.title"); !ok || v != "App" {
		t.Errorf("Translate(en, app.title) = %q, %v", v, ok)
	}
	if got := m.Locales(); !reflect.DeepEqual(got, []string{"en", "pt-BR"}) {
		t.Errorf("Locales = %v, want [en pt-BR]", got)
	}
}
