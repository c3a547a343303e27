package pipeline

import (
	"fmt"
	"maps"
	"strings"
)

// Values is the mapping of named values passed between stages.
type Values map[string]any

// Clone returns a shallow copy. A nil Values clones to an empty, non-nil map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	maps.Copy(out, v)
	return out
}

// Get returns the value stored under key.
func (v Values) Get(key string) (any, bool) {
	val, ok := v[key]
	return val, ok
}

// String returns the value under key rendered as a string.
// Strings are returned as-is, fmt.Stringer values via String, anything else
// via fmt.Sprint. The second result is false when the key is absent.
func (v Values) String(key string) (string, bool) {
	val, ok := v[key]
	if !ok {
		return "", false
	}
	return stringify(val), true
}

// Keys returns the keys in unspecified order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	return keys
}

func stringify(val any) string {
	switch s := val.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// Equals returns a predicate matching Values whose key, rendered as a string
// and trimmed, equals want. Non-Values inputs are compared directly.
func Equals(key, want string) Predicate {
	return func(input any) bool {
		if vals, ok := AsValues(input); ok {
			got, ok := vals.String(key)
			return ok && strings.TrimSpace(got) == want
		}
		return strings.TrimSpace(stringify(input)) == want
	}
}

// HasPrefix is like Equals but matches a case-insensitive prefix.
func HasPrefix(key, prefix string) Predicate {
	prefix = strings.ToLower(prefix)
	return func(input any) bool {
		var got string
		if vals, ok := AsValues(input); ok {
			s, ok := vals.String(key)
			if !ok {
				return false
			}
			got = s
		} else {
			got = stringify(input)
		}
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(got)), prefix)
	}
}

// AsValues accepts both Values and plain map[string]any.
func AsValues(input any) (Values, bool) {
	switch v := input.(type) {
	case Values:
		return v, true
	case map[string]any:
		return Values(v), true
	}
	return nil, false
}
