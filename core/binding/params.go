package binding

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/artpar/typeforge/core/schema"
	"gopkg.in/yaml.v3"
)

// parseTarget reads validator parameters. Accepted forms:
//
//	":email, :name"                          attribute list
//	":name, maximum: 30"                     attributes and options
//	[email, name]                            attribute list
//	{attributes: [name], maximum: 30}        attributes and options
func parseTarget(params any) (Target, error) {
	t := Target{Options: map[string]any{}}

	switch v := params.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if key, value, ok := splitOption(part); ok {
				t.Options[key] = value
				continue
			}
			t.Attributes = append(t.Attributes, strings.TrimPrefix(part, ":"))
		}
	case []any:
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return t, fmt.Errorf("attribute %v is not a name", e)
			}
			t.Attributes = append(t.Attributes, strings.TrimPrefix(s, ":"))
		}
	case map[string]any:
		for key, value := range v {
			switch key {
			case "attributes", "attribute":
				names, err := parseNames(value)
				if err != nil {
					return t, err
				}
				t.Attributes = append(t.Attributes, names...)
			default:
				t.Options[key] = value
			}
		}
	case nil:
	default:
		return t, fmt.Errorf("unsupported parameters of type %T", params)
	}

	if len(t.Attributes) == 0 {
		return t, errors.New("no attributes given")
	}
	return t, nil
}

func parseNames(v any) ([]string, error) {
	switch n := v.(type) {
	case string:
		return schema.SplitNames(n), nil
	case []any:
		out := make([]string, 0, len(n))
		for _, e := range n {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("attribute %v is not a name", e)
			}
			out = append(out, strings.TrimPrefix(s, ":"))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("attributes must be a name or a list of names, got %T", v)
	}
}

// splitOption splits "maximum: 30" into ("maximum", 30). Symbol attributes
// (":name") and bare names are not options.
func splitOption(part string) (string, any, bool) {
	if strings.HasPrefix(part, ":") {
		return "", nil, false
	}
	idx := strings.Index(part, ":")
	if idx <= 0 {
		return "", nil, false
	}
	key := strings.TrimSpace(part[:idx])
	raw := strings.TrimSpace(part[idx+1:])

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		value = raw
	}
	if s, ok := value.(string); ok && len(s) > 1 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		value = s[1 : len(s)-1]
	}
	return key, value, true
}

func optString(opts map[string]any, key string) (string, bool) {
	v, ok := opts[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func optBool(opts map[string]any, key string) bool {
	switch v := opts[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

func optNumber(opts map[string]any, key string) (float64, bool, error) {
	v, ok := opts[key]
	if !ok {
		return 0, false, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, true, fmt.Errorf("option %s must be a number, got %v", key, v)
	}
	return f, true, nil
}

func optList(opts map[string]any, key string) ([]any, bool, error) {
	v, ok := opts[key]
	if !ok {
		return nil, false, nil
	}
	switch l := v.(type) {
	case []any:
		return l, true, nil
	case string:
		names := schema.SplitNames(l)
		out := make([]any, len(names))
		for i, n := range names {
			out[i] = n
		}
		return out, true, nil
	default:
		return nil, true, fmt.Errorf("option %s must be a list, got %T", key, v)
	}
}

// toFloat converts the numeric shapes produced by the JSON and YAML decoders.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
