package content

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/panorama/internal/frontmatter"
	"git.home.luguber.info/inful/panorama/internal/logfields"
)

// Supported document extensions, in lookup order for Get.
var extensions = []string{".md", ".json", ".yaml", ".yml", ".csv"}

// Frontmatter keys left out of fingerprints because they change without the
// document changing.
var volatileKeys = []string{mdfp.FingerprintField, "lastmod", "updatedAt"}

// FSStore reads documents from a directory tree on every query.
type FSStore struct {
	root   string
	logger *slog.Logger
}

// NewFSStore returns a store rooted at dir. The directory is not checked until
// the first query.
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: dir, logger: slog.Default().With("component", "content")}
}

// Root returns the content directory.
func (s *FSStore) Root() string { return s.root }

func (s *FSStore) Fetch(ctx context.Context, q Query) ([]Entry, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return q.apply(entries), nil
}

func (s *FSStore) Get(ctx context.Context, p string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, queryFailed("query cancelled", err)
	}
	rel := strings.Trim(path.Clean("/"+p), "/")
	if rel == "" || hidden(rel) {
		return nil, notFound(p)
	}
	file, info, ok := s.resolve(rel)
	if !ok {
		return nil, notFound(p)
	}
	return s.read(file, info)
}

// resolve finds the document for a logical path. Extensions match without
// regard to case, as they do when walking the tree.
func (s *FSStore) resolve(rel string) (string, fs.FileInfo, bool) {
	dir := filepath.Join(s.root, filepath.FromSlash(path.Dir(rel)))
	base := path.Base(rel)
	des, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, false
	}
	for _, ext := range extensions {
		for _, d := range des {
			name := d.Name()
			fext := filepath.Ext(name)
			if d.IsDir() || !strings.EqualFold(fext, ext) || strings.TrimSuffix(name, fext) != base {
				continue
			}
			info, err := d.Info()
			if err != nil {
				continue
			}
			return filepath.Join(dir, name), info, true
		}
	}
	return "", nil, false
}

// load walks the tree in lexical order.
func (s *FSStore) load(ctx context.Context) ([]*Entry, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, queryFailed("content directory unavailable", err, "path", s.root)
	}
	if !info.IsDir() {
		return nil, queryFailed("content root is not a directory", nil, "path", s.root)
	}

	var entries []*Entry
	err = filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == s.root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !supported(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		e, err := s.read(p, info)
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrQueryFailed) {
			return nil, err
		}
		return nil, queryFailed("failed to walk content directory", err, "path", s.root)
	}
	s.logger.Debug("Loaded content", logfields.Count(len(entries)), logfields.Path(s.root))
	return entries, nil
}

func (s *FSStore) read(file string, info fs.FileInfo) (*Entry, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, queryFailed("failed to read content document", err, "file", file)
	}
	rel, err := filepath.Rel(s.root, file)
	if err != nil {
		return nil, queryFailed("content document outside root", err, "file", file)
	}

	ext := strings.ToLower(filepath.Ext(rel))
	logical := "/" + filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
	e := &Entry{
		Path:      logical,
		Extension: ext,
		CreatedAt: info.ModTime(),
		UpdatedAt: info.ModTime(),
	}
	e.Dir, e.Slug = splitLogical(logical)

	switch ext {
	case ".md":
		err = parseMarkdown(e, data)
	case ".json":
		err = parseJSON(e, data)
	case ".yaml", ".yml":
		err = parseYAML(e, data)
	case ".csv":
		err = parseCSV(e, data)
	}
	if err != nil {
		return nil, queryFailed("malformed content document", err, "file", file)
	}

	if t, ok := e.Fields[FieldTitle].(string); ok && t != "" {
		e.Title = t
	}
	if e.Title == "" {
		e.Title = titleFromSlug(e.Slug)
	}
	if d, ok := e.Fields[FieldDescription].(string); ok {
		e.Description = d
	}
	return e, nil
}

func parseMarkdown(e *Entry, data []byte) error {
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return err
	}
	e.Fields = doc.Fields
	e.Body = doc.Body
	e.Title = firstHeading(doc.Body)

	e.Fingerprint, err = markdownFingerprint(doc)
	return err
}

func markdownFingerprint(doc *frontmatter.Document) (string, error) {
	canonical, err := frontmatter.Canonical(doc.Fields, volatileKeys...)
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(canonical, string(doc.Body)), nil
}

// Fingerprint returns the fingerprint FSStore assigns to a document named name
// with the given contents. ok is false for unsupported extensions and for
// markdown whose frontmatter does not parse.
func Fingerprint(name string, data []byte) (string, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md":
		doc, err := frontmatter.Parse(data)
		if err != nil {
			return "", false
		}
		fp, err := markdownFingerprint(doc)
		return fp, err == nil
	case ".json", ".yaml", ".yml", ".csv":
		return mdfp.CalculateFingerprintFromParts("", string(data)), true
	}
	return "", false
}

// parseJSON puts object keys into Fields; any other document becomes Fields["body"].
func parseJSON(e *Entry, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	setData(e, v, data)
	return nil
}

func parseYAML(e *Entry, data []byte) error {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return err
	}
	setData(e, v, data)
	return nil
}

func setData(e *Entry, v any, raw []byte) {
	if m, ok := v.(map[string]any); ok {
		e.Fields = m
	} else {
		e.Fields = map[string]any{FieldBody: v}
	}
	e.Fingerprint = mdfp.CalculateFingerprintFromParts("", string(raw))
}

// parseCSV stores rows keyed by the header row in Fields["body"]. Short rows
// leave the missing columns out; extra cells are dropped.
func parseCSV(e *Entry, data []byte) error {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return err
	}
	rows := make([]any, 0, len(records))
	if len(records) > 0 {
		header := records[0]
		for _, rec := range records[1:] {
			row := make(map[string]any, len(header))
			for i, h := range header {
				if i < len(rec) {
					row[h] = rec[i]
				}
			}
			rows = append(rows, row)
		}
	}
	e.Fields = map[string]any{FieldBody: rows}
	e.Fingerprint = mdfp.CalculateFingerprintFromParts("", string(data))
	return nil
}

func firstHeading(body []byte) string {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// titleFromSlug builds a new Caser per call; Casers are not safe for concurrent use.
func titleFromSlug(slug string) string {
	return cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
}

// IsDocument reports whether name has a content document extension.
func IsDocument(name string) bool { return supported(name) }

func supported(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func hidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// splitLogical returns the directory and slug of a logical path.
func splitLogical(p string) (dir, slug string) {
	dir, slug = path.Split(p)
	if dir != "/" {
		dir = strings.TrimSuffix(dir, "/")
	}
	if dir == "" {
		dir = "/"
	}
	return dir, slug
}
