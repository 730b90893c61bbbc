package expect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Field paths are dot-separated segments with optional zero-based indexes,
// e.g. "client.name", "categories.id", "content.name[0]". Accessing a field
// on an array projects the field over its elements, so "categories.id"
// against a list of category objects yields the list of ids. Index
// semantics follow the server's declared ordering; the harness never
// re-sorts.

type segment struct {
	name  string
	index int // -1 when no index
}

func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, fmt.Errorf("empty field path")
	}
	parts := strings.Split(path, ".")
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		seg := segment{name: p, index: -1}
		if i := strings.IndexByte(p, '['); i >= 0 {
			if !strings.HasSuffix(p, "]") {
				return nil, fmt.Errorf("malformed segment %q in path %q", p, path)
			}
			idx, err := strconv.Atoi(p[i+1 : len(p)-1])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("malformed index in segment %q of path %q", p, path)
			}
			seg.name = p[:i]
			seg.index = idx
		}
		if seg.name == "" && seg.index < 0 {
			return nil, fmt.Errorf("empty segment in path %q", path)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// resolve navigates doc along path. The found flag is false when a key or
// index is absent; err is non-nil only for malformed paths.
func resolve(doc any, path string) (any, bool, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, false, err
	}

	node := doc
	for _, seg := range segs {
		if seg.name != "" {
			var ok bool
			node, ok = access(node, seg.name)
			if !ok {
				return nil, false, nil
			}
		}
		if seg.index >= 0 {
			list, ok := node.([]any)
			if !ok || seg.index >= len(list) {
				return nil, false, nil
			}
			node = list[seg.index]
		}
	}
	return node, true, nil
}

// access reads a field from an object, or projects the field over an array
// of objects.
func access(node any, name string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[name]
		return v, ok
	case []any:
		projected := make([]any, 0, len(n))
		for _, elem := range n {
			obj, ok := elem.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := obj[name]
			if !ok {
				return nil, false
			}
			projected = append(projected, v)
		}
		return projected, true
	}
	return nil, false
}

// asNumber coerces JSON and YAML scalar numbers to float64.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// valuesEqual compares an actual JSON value with an expected scenario value.
// Numbers compare by value regardless of integer or decimal representation.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}

	if a, ok := asNumber(actual); ok {
		if e, ok := asNumber(expected); ok {
			return a == e
		}
		return false
	}

	switch e := expected.(type) {
	case string:
		a, ok := actual.(string)
		return ok && a == e
	case bool:
		a, ok := actual.(bool)
		return ok && a == e
	case []any:
		a, ok := actual.([]any)
		if !ok || len(a) != len(e) {
			return false
		}
		for i := range e {
			if !valuesEqual(a[i], e[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(actual, expected)
}

// containsValue reports whether list has an element equal to want under
// valuesEqual semantics.
func containsValue(list []any, want any) bool {
	for _, v := range list {
		if valuesEqual(v, want) {
			return true
		}
	}
	return false
}
