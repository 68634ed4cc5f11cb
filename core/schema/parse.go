package schema

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDescriptor is matched by every descriptor validation failure.
var ErrInvalidDescriptor = errors.New("invalid descriptor")

// ValidationError lists every problem found in a descriptor.
type ValidationError struct {
	Name     string
	Problems []string
}

// Error returns the validation error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid descriptor %q:\n  - %s", e.Name, strings.Join(e.Problems, "\n  - "))
}

// Is reports whether target is ErrInvalidDescriptor.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDescriptor
}

// ParseFile parses a descriptor from a YAML or JSON file.
func ParseFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a descriptor from YAML (or JSON) bytes and validates it.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}

	if err := Validate(&d); err != nil {
		return nil, err
	}

	return &d, nil
}

// Validate checks the required fields of a descriptor.
func Validate(d *Descriptor) error {
	var errs []string

	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, "name is required")
	} else if !isValidName(d.Name) {
		errs = append(errs, fmt.Sprintf("name %q is not a valid identifier", d.Name))
	}

	if len(d.attributes) == 0 {
		errs = append(errs, "at least one attribute is required")
	}

	seen := make(map[string]bool, len(d.attributes))
	for _, a := range d.attributes {
		if !isValidIdentifier(a.Key) {
			errs = append(errs, fmt.Sprintf("attribute name %q is not a valid identifier", a.Key))
		}
		if seen[a.Key] {
			errs = append(errs, fmt.Sprintf("attribute %q declared twice", a.Key))
		}
		seen[a.Key] = true
	}

	if d.PrimaryKey != "" && len(d.attributes) > 0 && !d.attributes.Has(d.PrimaryKey) {
		errs = append(errs, fmt.Sprintf("primary_key %q is not a declared attribute", d.PrimaryKey))
	}

	for _, name := range d.settings.I18nAttributes {
		if !d.attributes.Has(name) && !d.settings.StubAttributes.Contains(name) {
			errs = append(errs, fmt.Sprintf("i18n attribute %q is not declared", name))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Name: d.Name, Problems: errs}
	}

	return nil
}

// isValidIdentifier checks if a string is a valid attribute identifier.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}

	return true
}

// isValidName accepts free-form type names that canonicalize to an
// identifier: letters, digits, spaces, '_' and '-', starting with a letter.
func isValidName(s string) bool {
	s = strings.TrimSpace(s)
	for i, c := range s {
		if i == 0 && !isLetter(c) {
			return false
		}
		if !isLetter(c) && !isDigit(c) && c != '_' && c != '-' && c != ' ' {
			return false
		}
	}
	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
