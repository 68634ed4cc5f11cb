// Package i18n is the shared translation store that descriptors load their
// translations into.
package i18n

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Store receives translations keyed by locale.
type Store interface {
	StoreTranslations(locale string, mapping map[string]any)
}

// Memory is an in-memory translation store. Nested mappings are flattened
// into dotted keys; locales are canonical BCP 47 tags.
type Memory struct {
	mu       sync.RWMutex
	fallback language.Tag
	entries  map[language.Tag]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// NewMemory creates a store that falls back to defaultLocale.
func NewMemory(defaultLocale string) (*Memory, error) {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default locale %q: %w", defaultLocale, err)
	}
	return &Memory{
		fallback: tag,
		entries:  make(map[language.Tag]map[string]string),
	}, nil
}

// DefaultLocale returns the fallback locale.
func (m *Memory) DefaultLocale() string {
	return m.fallback.String()
}

// StoreTranslations merges mapping into the translations of locale.
func (m *Memory) StoreTranslations(locale string, mapping map[string]any) {
	tag := language.Make(locale)

	flat := make(map[string]string)
	flatten("", mapping, flat)

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.entries[tag]
	if !ok {
		entries = make(map[string]string)
		m.entries[tag] = entries
		m.tags = append(m.tags, tag)
		m.matcher = nil
	}
	for k, v := range flat {
		entries[k] = v
	}
}

// Translate looks key up in the closest stored locale, then in the
// default locale.
func (m *Memory) Translate(locale, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tag := language.Make(locale)
	if v, ok := m.entries[tag][key]; ok {
		return v, true
	}

	if len(m.tags) > 0 {
		if m.matcher == nil {
			m.matcher = language.NewMatcher(m.tags)
		}
		_, idx, conf := m.matcher.Match(tag)
		if conf != language.No {
			if v, ok := m.entries[m.tags[idx]][key]; ok {
				return v, true
			}
		}
	}

	v, ok := m.entries[m.fallback][key]
	return v, ok
}

// Locales returns the locales that hold translations, sorted.
func (m *Memory) Locales() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.tags))
	for _, t := range m.tags {
		out = append(out, t.String())
	}
	sort.Strings(out)
	return out
}

// Ingest loads descriptor translations into store. A key is locale-scoped
// when its first dot-separated segment is a known locale ("de.user.email"),
// or when it is a known locale holding a nested mapping ({"de": {...}}).
// Known locales are defaultLocale, locales, and the locales store already
// holds. Other keys go to defaultLocale whole, so "app.title" never lands
// in a locale named "app".
func Ingest(store Store, defaultLocale string, locales []string, translations map[string]any) {
	if len(translations) == 0 {
		return
	}

	known := knownLocales(store, defaultLocale, locales)

	keys := make([]string, 0, len(translations))
	for k := range translations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	unscoped := make(map[string]any)
	for _, k := range keys {
		v := translations[k]

		if nested, ok := v.(map[string]any); ok && known.has(k) {
			store.StoreTranslations(k, nested)
			continue
		}
		if i := strings.Index(k, "."); i > 0 && known.has(k[:i]) {
			store.StoreTranslations(k[:i], map[string]any{k[i+1:]: v})
			continue
		}
		unscoped[k] = v
	}

	if len(unscoped) > 0 {
		store.StoreTranslations(defaultLocale, unscoped)
	}
}

type localeSet map[language.Tag]bool

func (s localeSet) has(locale string) bool {
	tag, err := language.Parse(locale)
	return err == nil && s[tag]
}

func knownLocales(store Store, defaultLocale string, locales []string) localeSet {
	set := make(localeSet)
	add := func(l string) {
		if tag, err := language.Parse(l); err == nil {
			set[tag] = true
		}
	}

	add(defaultLocale)
	for _, l := range locales {
		add(l)
	}
	if lister, ok := store.(interface{ Locales() []string }); ok {
		for _, l := range lister.Locales() {
			add(l)
		}
	}
	return set
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flatten(key, t, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(t)
		}
	}
}
