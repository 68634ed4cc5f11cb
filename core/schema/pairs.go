package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Pair is a single entry of an ordered mapping.
type Pair[V any] struct {
	Key   string
	Value V
}

// Pairs is a mapping that remembers declaration order.
// It encodes to and decodes from a JSON object or YAML mapping.
type Pairs[V any] []Pair[V]

// Attributes maps attribute names to data-type tags, in declaration order.
type Attributes = Pairs[string]

// Rules maps a validator kind or lifecycle event to its parameters.
type Rules = Pairs[any]

// Keys returns the keys in declaration order.
func (p Pairs[V]) Keys() []string {
	keys := make([]string, len(p))
	for i, e := range p {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the value stored under key.
func (p Pairs[V]) Get(key string) (V, bool) {
	for _, e := range p {
		if e.Key == key {
			return e.Value, true
		}
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (p Pairs[V]) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Set replaces the value under key or appends a new entry.
func (p *Pairs[V]) Set(key string, value V) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Pair[V]{Key: key, Value: value})
}

// Clone returns a shallow copy of the entries.
func (p Pairs[V]) Clone() Pairs[V] {
	if p == nil {
		return nil
	}
	out := make(Pairs[V], len(p))
	copy(out, p)
	return out
}

// MarshalJSON encodes the pairs as a JSON object in declaration order.
func (p Pairs[V]) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", e.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order. Duplicate keys are rejected.
func (p *Pairs[V]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	out := Pairs[V]{}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		if seen[key] {
			return fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = true

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		value, err := decodeJSONValue[V](raw)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		out = append(out, Pair[V]{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = out
	return nil
}

// MarshalYAML encodes the pairs as a YAML mapping in declaration order.
func (p Pairs[V]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range p {
		var value yaml.Node
		if err := value.Encode(e.Value); err != nil {
			return nil, fmt.Errorf("key %q: %w", e.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			&value,
		)
	}
	return node, nil
}

// UnmarshalYAML decodes a YAML mapping keeping key order. Duplicate keys are rejected.
func (p *Pairs[V]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*p = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping", node.Line)
	}

	out := make(Pairs[V], 0, len(node.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if seen[key] {
			return fmt.Errorf("line %d: duplicate key %q", node.Content[i].Line, key)
		}
		seen[key] = true

		value, err := decodeYAMLValue[V](node.Content[i+1])
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		out = append(out, Pair[V]{Key: key, Value: value})
	}

	*p = out
	return nil
}

// decodeJSONValue decodes raw into V. String targets accept any scalar
// so that {"static": true} still yields a tag.
func decodeJSONValue[V any](raw json.RawMessage) (V, error) {
	var v V
	if s, ok := any(&v).(*string); ok {
		var scalar any
		if err := json.Unmarshal(raw, &scalar); err != nil {
			return v, err
		}
		switch t := scalar.(type) {
		case string:
			*s = t
		case nil:
			*s = ""
		case map[string]any, []any:
			return v, fmt.Errorf("expected scalar, got %s", raw)
		default:
			*s = fmt.Sprint(t)
		}
		return v, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

func decodeYAMLValue[V any](node *yaml.Node) (V, error) {
	var v V
	if s, ok := any(&v).(*string); ok {
		if node.Kind != yaml.ScalarNode {
			return v, fmt.Errorf("line %d: expected scalar", node.Line)
		}
		if node.Tag != "!!null" {
			*s = node.Value
		}
		return v, nil
	}
	if err := node.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}
