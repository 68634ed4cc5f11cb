package convention

import "strings"

// Pluralize returns the plural form of a word.
// Words that are already plural or uncountable are returned unchanged.
func Pluralize(word string) string {
	if word == "" {
		return ""
	}

	lower := strings.ToLower(word)

	if uncountable[lower] {
		return word
	}

	// Already plural (irregular)
	for _, plural := range irregularPlurals {
		if plural == lower {
			return word
		}
	}

	if plural, ok := irregularPlurals[lower]; ok {
		return matchCase(word, plural)
	}

	// Already plural (regular): singularizing changes it and the
	// singular pluralizes back to the same word.
	if single := Singularize(word); single != word && pluralizeRegular(single) == word {
		return word
	}

	return pluralizeRegular(word)
}

func pluralizeRegular(word string) string {
	lower := strings.ToLower(word)

	// Words ending in 's', 'x', 'z', 'ch', 'sh' → add 'es'
	if strings.HasSuffix(lower, "s") ||
		strings.HasSuffix(lower, "x") ||
		strings.HasSuffix(lower, "z") ||
		strings.HasSuffix(lower, "ch") ||
		strings.HasSuffix(lower, "sh") {
		return word + "es"
	}

	// Words ending in consonant + 'y' → change 'y' to 'ies'
	if strings.HasSuffix(lower, "y") && len(word) > 1 {
		if !isVowel(rune(lower[len(lower)-2])) {
			return word[:len(word)-1] + "ies"
		}
	}

	// 'lf' and 'rf' → 'lves', 'rves' (half, wharf)
	if strings.HasSuffix(lower, "lf") || strings.HasSuffix(lower, "rf") {
		return word[:len(word)-1] + "ves"
	}

	return word + "s"
}

// Singularize returns the singular form of a word.
// Inverse of Pluralize. Singular words are returned unchanged.
func Singularize(word string) string {
	if word == "" {
		return ""
	}

	lower := strings.ToLower(word)

	if uncountable[lower] {
		return word
	}

	// Irregular singular already
	if _, ok := irregularPlurals[lower]; ok {
		return word
	}

	for singular, plural := range irregularPlurals {
		if plural == lower {
			return matchCase(word, singular)
		}
	}

	// Singular words that merely end in 's'
	if strings.HasSuffix(lower, "ss") ||
		strings.HasSuffix(lower, "us") ||
		strings.HasSuffix(lower, "is") {
		return word
	}

	// Words ending in 'ies' → change to 'y'
	if strings.HasSuffix(lower, "ies") && len(lower) > 3 {
		return word[:len(word)-3] + "y"
	}

	// Words ending in 'lves', 'rves' → 'lf', 'rf'
	if strings.HasSuffix(lower, "lves") || strings.HasSuffix(lower, "rves") {
		return word[:len(word)-3] + "f"
	}

	// Words ending in 'es' (after sibilants) → remove 'es'
	if strings.HasSuffix(lower, "sses") ||
		strings.HasSuffix(lower, "xes") ||
		strings.HasSuffix(lower, "zes") ||
		strings.HasSuffix(lower, "ches") ||
		strings.HasSuffix(lower, "shes") {
		return word[:len(word)-2]
	}

	if strings.HasSuffix(lower, "s") {
		return word[:len(word)-1]
	}

	return word
}

// matchCase copies the capitalization of the first letter of word onto repl.
func matchCase(word, repl string) string {
	if word[0] >= 'A' && word[0] <= 'Z' {
		return strings.ToUpper(repl[:1]) + repl[1:]
	}
	return repl
}

// isVowel returns true if the rune is a vowel.
func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	default:
		return false
	}
}

// Common irregular plurals, keyed by lower-case singular.
var irregularPlurals = map[string]string{
	"person":   "people",
	"man":      "men",
	"woman":    "women",
	"child":    "children",
	"foot":     "feet",
	"tooth":    "teeth",
	"goose":    "geese",
	"mouse":    "mice",
	"ox":       "oxen",
	"index":    "indices",
	"matrix":   "matrices",
	"vertex":   "vertices",
	"analysis": "analyses",
	"crisis":   "crises",
	"thesis":   "theses",
	"datum":    "data",
	"medium":   "media",
	"status":   "statuses",
	"bus":      "buses",
	"knife":    "knives",
	"life":     "lives",
	"wife":     "wives",
	"leaf":     "leaves",
}

var uncountable = map[string]bool{
	"equipment":   true,
	"information": true,
	"metadata":    true,
	"news":        true,
	"rice":        true,
	"series":      true,
	"sheep":       true,
	"species":     true,
	"fish":        true,
}
