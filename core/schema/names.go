package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// NameList is an ordered list of attribute names.
//
// It decodes from a sequence of names, a single comma separated string, or
// a mapping whose keys are taken in order:
//
//	public_attributes: [email, name]
//	public_attributes: { email: E-mail, name: Name }
type NameList []string

// Contains reports whether name is listed.
func (l NameList) Contains(name string) bool {
	for _, n := range l {
		if n == name {
			return true
		}
	}
	return false
}

func (l NameList) clone() NameList {
	if l == nil {
		return nil
	}
	out := make(NameList, len(l))
	copy(out, l)
	return out
}

// UnmarshalJSON accepts an array, an object or a string.
func (l *NameList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
	case len(data) > 0 && data[0] == '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return err
		}
		*l = append(NameList{}, names...)
	case len(data) > 0 && data[0] == '{':
		var p Pairs[any]
		if err := p.UnmarshalJSON(data); err != nil {
			return err
		}
		*l = append(NameList{}, p.Keys()...)
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("expected list of names: %w", err)
		}
		*l = SplitNames(s)
	}
	return nil
}

// UnmarshalYAML accepts a sequence, a mapping or a scalar.
func (l *NameList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		names := make(NameList, 0, len(node.Content))
		for _, n := range node.Content {
			if n.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected attribute name", n.Line)
			}
			names = append(names, n.Value)
		}
		*l = names
	case yaml.MappingNode:
		names := make(NameList, 0, len(node.Content)/2)
		for i := 0; i < len(node.Content); i += 2 {
			names = append(names, node.Content[i].Value)
		}
		*l = names
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = SplitNames(node.Value)
	default:
		return fmt.Errorf("line %d: expected list of names", node.Line)
	}
	return nil
}

// SplitNames splits "a, :b,c" into [a b c]. A leading ':' on a name is
// dropped, so symbol-style lists are accepted.
func SplitNames(s string) NameList {
	out := NameList{}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}) {
		part = strings.TrimPrefix(part, ":")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
