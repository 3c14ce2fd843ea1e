package render

import (
	"html/template"
	"sort"
)

var funcs = template.FuncMap{
	"isRows":  isRows,
	"isList":  isList,
	"isMap":   isMap,
	"columns": columns,
	"keys":    keys,
}

func isRows(v any) bool {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return false
	}
	for _, item := range list {
		if _, ok := item.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}

func isMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// columns returns the sorted union of row keys.
func columns(v any) []string {
	seen := map[string]bool{}
	var out []string
	list, _ := v.([]any)
	for _, item := range list {
		row, _ := item.(map[string]any)
		for k := range row {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

func keys(v any) []string {
	m, _ := v.(map[string]any)
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
