package schema

import "strings"

// Data-type tags recognised for attributes. Tags outside this list are kept
// verbatim and treated as opaque by the core.
const (
	TypeString   = "String"
	TypeText     = "Text"
	TypeInteger  = "Integer"
	TypeFloat    = "Float"
	TypeDecimal  = "Decimal"
	TypeBoolean  = "Boolean"
	TypeDate     = "Date"
	TypeDateTime = "DateTime"
	TypeTime     = "Time"
	TypeArray    = "Array"
	TypeHash     = "Hash"
	TypeJSON     = "JSON"

	// TypeStub marks a transient attribute: accessor only, never persisted.
	TypeStub = "Stub"
)

// StaticKey is the reserved attribute key that binds a descriptor to a
// pre-existing type instead of a synthesized one.
const StaticKey = "static"

var knownTypes = func() map[string]string {
	m := make(map[string]string)
	for _, t := range []string{
		TypeString, TypeText, TypeInteger, TypeFloat, TypeDecimal, TypeBoolean,
		TypeDate, TypeDateTime, TypeTime, TypeArray, TypeHash, TypeJSON, TypeStub,
	} {
		m[strings.ToLower(t)] = t
	}
	// common aliases
	m["int"] = TypeInteger
	m["bool"] = TypeBoolean
	m["datetime"] = TypeDateTime
	m["timestamp"] = TypeDateTime
	m["object"] = TypeHash
	return m
}()

// CanonicalType returns the canonical spelling of a known tag, or the
// trimmed tag unchanged when it is not known.
func CanonicalType(tag string) string {
	tag = strings.TrimSpace(tag)
	if t, ok := knownTypes[strings.ToLower(tag)]; ok {
		return t
	}
	return tag
}

// IsKnownType reports whether tag is one of the recognised data-type tags.
func IsKnownType(tag string) bool {
	_, ok := knownTypes[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// IsStub reports whether tag marks a transient attribute.
func IsStub(tag string) bool {
	return CanonicalType(tag) == TypeStub
}
