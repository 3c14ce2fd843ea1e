package content

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Query selects and shapes entries.
type Query struct {
	// Dir is the logical directory to query; empty means "/".
	Dir string
	// Deep includes documents in nested directories.
	Deep bool
	// Only keeps just the named fields (path is always kept).
	Only []string
	// Without drops the named fields.
	Without []string
	SortBy  []Sort
	Skip    int
	Limit   int // 0 = unlimited
}

// Sort orders by one field. Ties keep store order.
type Sort struct {
	Field string
	Desc  bool
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

func (q Query) dir() string {
	if q.Dir == "" {
		return "/"
	}
	d := path.Clean("/" + strings.TrimPrefix(q.Dir, "/"))
	return d
}

func (q Query) validate() error {
	for _, set := range [][]string{q.Only, q.Without} {
		for _, f := range set {
			if !builtinFields[f] && !fieldName.MatchString(f) {
				return queryFailed("projection unsupported", nil, "field", f)
			}
		}
	}
	for _, s := range q.SortBy {
		if !builtinFields[s.Field] && !fieldName.MatchString(s.Field) {
			return queryFailed("sort field unsupported", nil, "field", s.Field)
		}
	}
	if q.Skip < 0 || q.Limit < 0 {
		return queryFailed("skip and limit must be >= 0", nil)
	}
	return nil
}

// matches reports whether e is in scope for the query directory.
func (q Query) matches(e *Entry) bool {
	d := q.dir()
	if !q.Deep {
		return e.Dir == d
	}
	if d == "/" {
		return true
	}
	return e.Dir == d || strings.HasPrefix(e.Dir, d+"/")
}

// apply filters, sorts, pages and projects entries in store order.
func (q Query) apply(entries []*Entry) []Entry {
	selected := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if q.matches(e) {
			selected = append(selected, e)
		}
	}

	if len(q.SortBy) > 0 {
		sort.SliceStable(selected, func(i, j int) bool {
			for _, s := range q.SortBy {
				a, _ := selected[i].Value(s.Field)
				b, _ := selected[j].Value(s.Field)
				c := compare(a, b)
				if c == 0 {
					continue
				}
				if s.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.Skip > 0 {
		if q.Skip >= len(selected) {
			selected = selected[:0]
		} else {
			selected = selected[q.Skip:]
		}
	}
	if q.Limit > 0 && q.Limit < len(selected) {
		selected = selected[:q.Limit]
	}

	out := make([]Entry, 0, len(selected))
	for _, e := range selected {
		out = append(out, e.clone().project(q.Only, q.Without))
	}
	return out
}

// compare orders missing values first, then numbers, times and strings by
// their natural order; mixed types fall back to their string form.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
