package content

import (
	"time"
)

// Built-in entry fields addressable by projection and sorting.
const (
	FieldPath        = "path"
	FieldDir         = "dir"
	FieldSlug        = "slug"
	FieldExtension   = "extension"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldFingerprint = "fingerprint"
	FieldBody        = "body"
)

var builtinFields = map[string]bool{
	FieldPath: true, FieldDir: true, FieldSlug: true, FieldExtension: true,
	FieldTitle: true, FieldDescription: true, FieldCreatedAt: true,
	FieldUpdatedAt: true, FieldFingerprint: true, FieldBody: true,
}

// Entry is one content document.
type Entry struct {
	Path        string
	Dir         string
	Slug        string
	Extension   string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Fingerprint string

	// Fields holds frontmatter (Markdown) or top-level keys (JSON/YAML).
	Fields map[string]any

	// Body is the Markdown source for .md documents. For CSV documents the
	// rows are in Fields["body"].
	Body []byte
}

// Value returns the named field, looking at built-in fields first.
func (e *Entry) Value(field string) (any, bool) {
	switch field {
	case FieldPath:
		return e.Path, true
	case FieldDir:
		return e.Dir, true
	case FieldSlug:
		return e.Slug, true
	case FieldExtension:
		return e.Extension, true
	case FieldTitle:
		return e.Title, true
	case FieldDescription:
		return e.Description, true
	case FieldCreatedAt:
		return e.CreatedAt, true
	case FieldUpdatedAt:
		return e.UpdatedAt, true
	case FieldFingerprint:
		return e.Fingerprint, true
	case FieldBody:
		if e.Body != nil {
			return string(e.Body), true
		}
	}
	v, ok := e.Fields[field]
	return v, ok
}

// Bool reports whether a frontmatter flag is set to true.
func (e *Entry) Bool(field string) bool {
	b, _ := e.Fields[field].(bool)
	return b
}

// clone returns a copy whose Fields map and Body may be modified freely.
func (e *Entry) clone() Entry {
	c := *e
	if e.Fields != nil {
		c.Fields = make(map[string]any, len(e.Fields))
		for k, v := range e.Fields {
			c.Fields[k] = v
		}
	}
	if e.Body != nil {
		c.Body = append([]byte(nil), e.Body...)
	}
	return c
}

// project keeps only the selected fields. Path is always kept so callers can
// address the entry.
func (e Entry) project(only, without []string) Entry {
	if len(only) > 0 {
		keep := make(map[string]bool, len(only)+1)
		for _, f := range only {
			keep[f] = true
		}
		keep[FieldPath] = true
		e = e.drop(func(f string) bool { return !keep[f] })
	}
	if len(without) > 0 {
		drop := make(map[string]bool, len(without))
		for _, f := range without {
			if f != FieldPath {
				drop[f] = true
			}
		}
		e = e.drop(func(f string) bool { return drop[f] })
	}
	return e
}

func (e Entry) drop(match func(string) bool) Entry {
	if match(FieldDir) {
		e.Dir = ""
	}
	if match(FieldSlug) {
		e.Slug = ""
	}
	if match(FieldExtension) {
		e.Extension = ""
	}
	if match(FieldTitle) {
		e.Title = ""
	}
	if match(FieldDescription) {
		e.Description = ""
	}
	if match(FieldCreatedAt) {
		e.CreatedAt = time.Time{}
	}
	if match(FieldUpdatedAt) {
		e.UpdatedAt = time.Time{}
	}
	if match(FieldFingerprint) {
		e.Fingerprint = ""
	}
	if match(FieldBody) {
		e.Body = nil
	}
	if e.Fields != nil {
		kept := make(map[string]any, len(e.Fields))
		for k, v := range e.Fields {
			if !match(k) {
				kept[k] = v
			}
		}
		e.Fields = kept
	}
	return e
}
