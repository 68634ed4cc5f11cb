package convention

import (
	"strings"
	"unicode"
)

// Underscore converts a CamelCase or free-form name to snake_case.
// Spaces, hyphens and dots are treated as word separators.
//
//	Underscore("UserProfile")  // "user_profile"
//	Underscore("HTTPRequest")  // "http_request"
//	Underscore("order-item")   // "order_item"
func Underscore(name string) string {
	runes := []rune(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(runes) + 4)

	for i, r := range runes {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
		case unicode.IsUpper(r):
			if i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}

	return strings.Trim(b.String(), "_")
}

// Camelize converts snake_case to CamelCase.
func Camelize(name string) string {
	parts := strings.Split(Underscore(name), "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// Classify returns the canonical type name for a name: singular, CamelCase.
// Only the last word is singularized.
//
//	Classify("users")          // "User"
//	Classify("user_profiles")  // "UserProfile"
//	Classify("User")           // "User"
func Classify(name string) string {
	parts := splitWords(name)
	if len(parts) == 0 {
		return ""
	}
	parts[len(parts)-1] = Singularize(parts[len(parts)-1])
	return Camelize(strings.Join(parts, "_"))
}

// Tableize returns the collection name for a name: snake_case with the
// last word pluralized.
//
//	Tableize("User")         // "users"
//	Tableize("UserProfile")  // "user_profiles"
//	Tableize("people")       // "people"
func Tableize(name string) string {
	parts := splitWords(name)
	if len(parts) == 0 {
		return ""
	}
	last := len(parts) - 1
	parts[last] = Pluralize(Singularize(parts[last]))
	return strings.Join(parts, "_")
}

// IsTypeName reports whether name is a canonical type name as produced by Classify.
func IsTypeName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 && !(r >= 'A' && r <= 'Z') {
			return false
		}
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func splitWords(name string) []string {
	u := Underscore(name)
	if u == "" {
		return nil
	}
	return strings.Split(u, "_")
}
