package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// Args is the decoded JSON argument object for one tool call. Accessors
// coerce the loose JSON types (float64 numbers, string ids) into what the
// handler needs and report absence instead of panicking.
type Args map[string]any

func (a Args) String(key string) (string, bool) {
	switch v := a[key].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}

// RequireString errors with the parameter name so validation failures read
// well in tool output.
func (a Args) RequireString(key string) (string, error) {
	s, ok := a.String(key)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return s, nil
}

func (a Args) StringOr(key, def string) string {
	if s, ok := a.String(key); ok && s != "" {
		return s
	}
	return def
}

func (a Args) Int(key string) (int64, bool) {
	switch v := a[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func (a Args) IntOr(key string, def int64) int64 {
	if n, ok := a.Int(key); ok {
		return n
	}
	return def
}

func (a Args) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (a Args) Bool(key string) (bool, bool) {
	v, ok := a[key].(bool)
	return v, ok
}

func (a Args) BoolOr(key string, def bool) bool {
	if v, ok := a.Bool(key); ok {
		return v
	}
	return def
}

func (a Args) List(key string) ([]any, bool) {
	v, ok := a[key].([]any)
	return v, ok
}

// Ints decodes a list parameter of numeric ids, rejecting the whole list
// on the first element that is not an integer.
func (a Args) Ints(key string) ([]int64, error) {
	raw, ok := a.List(key)
	if !ok {
		return nil, nil
	}
	out := make([]int64, 0, len(raw))
	for _, e := range raw {
		switch v := e.(type) {
		case float64:
			out = append(out, int64(v))
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s must be a list of integers", key)
			}
			out = append(out, n)
		default:
			return nil, fmt.Errorf("%s must be a list of integers", key)
		}
	}
	return out, nil
}

// Maps decodes a list parameter of JSON objects.
func (a Args) Maps(key string) ([]map[string]any, error) {
	raw, ok := a.List(key)
	if !ok {
		return nil, nil
	}
	out := make([]map[string]any, 0, len(raw))
	for i, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be an object", key, i)
		}
		out = append(out, m)
	}
	return out, nil
}
