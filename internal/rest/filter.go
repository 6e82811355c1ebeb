package rest

import (
	"path"
	"strings"
)

// filterPaths keeps the parts of a decoded document selected by filter_path
// expressions. Expressions are dot separated; a segment may use * wildcards
// and ** matches any number of levels. Arrays are traversed transparently.
func filterPaths(v any, expressions []string) any {
	paths := make([][]string, 0, len(expressions))
	for _, e := range expressions {
		paths = append(paths, strings.Split(e, "."))
	}
	out, ok := filterValue(v, paths)
	if !ok {
		return map[string]any{}
	}
	return out
}

func filterValue(v any, paths [][]string) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		out := map[string]any{}
		for key, child := range t {
			var rest [][]string
			whole := false
			for _, p := range paths {
				rest, whole = matchSegment(p, key, rest, whole)
			}
			if whole {
				out[key] = child
				continue
			}
			if len(rest) == 0 {
				continue
			}
			if filtered, ok := filterValue(child, rest); ok {
				out[key] = filtered
			}
		}
		return out, len(out) > 0
	case []any:
		var out []any
		for _, item := range t {
			if filtered, ok := filterValue(item, paths); ok {
				out = append(out, filtered)
			}
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}

// matchSegment matches the head of p against key. It returns the paths to
// apply below key, and whether key is selected as a whole.
func matchSegment(p []string, key string, rest [][]string, whole bool) ([][]string, bool) {
	if p[0] == "**" {
		if len(p) == 1 {
			return rest, true
		}
		rest, whole = matchSegment(p[1:], key, rest, whole)
		return append(rest, p), whole
	}
	if ok, _ := path.Match(p[0], key); !ok {
		return rest, whole
	}
	if len(p) == 1 {
		return rest, true
	}
	return append(rest, p[1:]), whole
}
