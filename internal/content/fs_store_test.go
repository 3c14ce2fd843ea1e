package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/panorama/internal/foundation/errors"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return root
}

func paths(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func siteTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"index.md":          "---\ntitle: Home\n---\n# Welcome\n",
		"about.md":          "# About us\n\nText.\n",
		"blog/post-1.md":    "---\ndescription: First\norder: 2\n---\nBody\n",
		"blog/post-2.md":    "---\norder: 1\n---\nBody\n",
		"blog/index.md":     "Blog index\n",
		"data/team.json":    `{"title": "Team", "members": ["a", "b"]}`,
		"data/links.yaml":   "- one\n- two\n",
		"data/prices.csv":   "name,price\ntea,2\ncoffee,3\n",
		".drafts/secret.md": "hidden\n",
		"notes.txt":         "ignored\n",
	})
}

func TestFSStoreDeepFetchLexicalOrder(t *testing.T) {
	s := NewFSStore(siteTree(t))
	entries, err := s.Fetch(context.Background(), Query{Deep: true, Only: []string{FieldPath}})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/about",
		"/blog/index",
		"/blog/post-1",
		"/blog/post-2",
		"/data/links",
		"/data/prices",
		"/data/team",
		"/index",
	}, paths(entries))
}

func TestFSStoreShallowFetch(t *testing.T) {
	s := NewFSStore(siteTree(t))

	top, err := s.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/about", "/index"}, paths(top))

	blog, err := s.Fetch(context.Background(), Query{Dir: "blog"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/blog/index", "/blog/post-1", "/blog/post-2"}, paths(blog))
}

func TestFSStoreEntryFields(t *testing.T) {
	s := NewFSStore(siteTree(t))
	ctx := context.Background()

	home, err := s.Get(ctx, "/index")
	require.NoError(t, err)
	assert.Equal(t, "Home", home.Title)
	assert.Equal(t, "/", home.Dir)
	assert.Equal(t, "index", home.Slug)
	assert.Equal(t, ".md", home.Extension)
	assert.NotEmpty(t, home.Fingerprint)
	assert.False(t, home.UpdatedAt.IsZero())

	about, err := s.Get(ctx, "/about")
	require.NoError(t, err)
	assert.Equal(t, "About us", about.Title, "falls back to first heading")

	post, err := s.Get(ctx, "/blog/post-2")
	require.NoError(t, err)
	assert.Equal(t, "Post 2", post.Title, "falls back to slug")
	assert.Equal(t, "/blog", post.Dir)

	team, err := s.Get(ctx, "/data/team")
	require.NoError(t, err)
	assert.Equal(t, "Team", team.Title)
	assert.Equal(t, []any{"a", "b"}, team.Fields["members"])

	links, err := s.Get(ctx, "/data/links")
	require.NoError(t, err)
	assert.Equal(t, []any{"one", "two"}, links.Fields[FieldBody])

	prices, err := s.Get(ctx, "/data/prices")
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"name": "tea", "price": "2"},
		map[string]any{"name": "coffee", "price": "3"},
	}, prices.Fields[FieldBody])
}

func TestFSStoreGetNotFound(t *testing.T) {
	s := NewFSStore(siteTree(t))
	for _, p := range []string{"/missing", "/", "/.drafts/secret", "/notes"} {
		_, err := s.Get(context.Background(), p)
		require.Error(t, err, p)
		assert.True(t, errors.Is(err, ErrNotFound), p)
	}
}

func TestFSStoreProjection(t *testing.T) {
	s := NewFSStore(siteTree(t))
	entries, err := s.Fetch(context.Background(), Query{Dir: "/blog", Only: []string{"description"}})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	post1 := entries[1]
	assert.Equal(t, "/blog/post-1", post1.Path)
	assert.Empty(t, post1.Title)
	assert.Nil(t, post1.Body)
	assert.Equal(t, map[string]any{"description": "First"}, post1.Fields)

	without, err := s.Fetch(context.Background(), Query{Dir: "/blog", Without: []string{FieldBody, FieldPath}})
	require.NoError(t, err)
	assert.Equal(t, "/blog/index", without[0].Path, "path cannot be dropped")
	assert.Nil(t, without[0].Body)
}

func TestFSStoreSortSkipLimit(t *testing.T) {
	s := NewFSStore(siteTree(t))
	entries, err := s.Fetch(context.Background(), Query{
		Dir:    "/blog",
		SortBy: []Sort{{Field: "order", Desc: true}},
		Limit:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/blog/post-1", "/blog/post-2"}, paths(entries))

	entries, err = s.Fetch(context.Background(), Query{Dir: "/blog", SortBy: []Sort{{Field: "order"}}, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"/blog/post-2", "/blog/post-1"}, paths(entries), "missing values sort first")
}

func TestFSStoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing root", func(t *testing.T) {
		_, err := NewFSStore(filepath.Join(t.TempDir(), "nope")).Fetch(ctx, Query{Deep: true})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrQueryFailed))
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
	})

	t.Run("malformed frontmatter", func(t *testing.T) {
		root := writeTree(t, map[string]string{"bad.md": "---\ntitle: [x\n---\n"})
		_, err := NewFSStore(root).Fetch(ctx, Query{Deep: true})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrQueryFailed))
		ce, ok := ferrors.AsClassified(err)
		require.True(t, ok)
		file, _ := ce.Context().GetString("file")
		assert.Equal(t, filepath.Join(root, "bad.md"), file)
	})

	t.Run("malformed json", func(t *testing.T) {
		root := writeTree(t, map[string]string{"bad.json": "{"})
		_, err := NewFSStore(root).Fetch(ctx, Query{Deep: true})
		assert.True(t, errors.Is(err, ErrQueryFailed))
	})

	t.Run("unsupported projection", func(t *testing.T) {
		_, err := NewFSStore(siteTree(t)).Fetch(ctx, Query{Only: []string{"not a field"}})
		assert.True(t, errors.Is(err, ErrQueryFailed))
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewFSStore(siteTree(t)).Fetch(cctx, Query{Deep: true})
		assert.True(t, errors.Is(err, ErrQueryFailed))
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestFingerprintIgnoresVolatileKeys(t *testing.T) {
	a := writeTree(t, map[string]string{"p.md": "---\ntitle: A\nlastmod: 2024-01-01\n---\nBody\n"})
	b := writeTree(t, map[string]string{"p.md": "---\ntitle: A\nlastmod: 2025-02-02\n---\nBody\n"})
	c := writeTree(t, map[string]string{"p.md": "---\ntitle: A\n---\nOther\n"})

	get := func(root string) string {
		e, err := NewFSStore(root).Get(context.Background(), "/p")
		require.NoError(t, err)
		return e.Fingerprint
	}
	assert.Equal(t, get(a), get(b))
	assert.NotEqual(t, get(a), get(c))
}

func TestFSStoreGetUppercaseExtension(t *testing.T) {
	s := NewFSStore(writeTree(t, map[string]string{"About.MD": "# About\n", "data/Team.Json": `{"title": "Team"}`}))
	entries, err := s.Fetch(context.Background(), Query{Deep: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"/About", "/data/Team"}, paths(entries))

	for _, p := range paths(entries) {
		e, err := s.Get(context.Background(), p)
		require.NoError(t, err, p)
		assert.Equal(t, p, e.Path)
	}
	e, err := s.Get(context.Background(), "/About")
	require.NoError(t, err)
	assert.Equal(t, ".md", e.Extension)
	assert.Equal(t, "About", e.Title)
}

func TestFSStoreRaggedCSV(t *testing.T) {
	s := NewFSStore(writeTree(t, map[string]string{"prices.csv": "name,price\ntea\ncoffee,3,extra\n"}))
	e, err := s.Get(context.Background(), "/prices")
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"name": "tea"},
		map[string]any{"name": "coffee", "price": "3"},
	}, e.Fields[FieldBody])
}

func TestFSStoreNotFoundMessage(t *testing.T) {
	_, err := NewFSStore(siteTree(t)).Get(context.Background(), "/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/missing")
	assert.NotContains(t, err.Error(), "content not found: content not found")
}

func TestFingerprintMatchesEntry(t *testing.T) {
	doc := "---\ntitle: A\nlastmod: 2024-01-01\n---\nBody\n"
	e, err := NewFSStore(writeTree(t, map[string]string{"p.md": doc})).Get(context.Background(), "/p")
	require.NoError(t, err)

	fp, ok := Fingerprint("p.md", []byte(doc))
	require.True(t, ok)
	assert.Equal(t, e.Fingerprint, fp)

	_, ok = Fingerprint("notes.txt", []byte("x"))
	assert.False(t, ok)
	_, ok = Fingerprint("broken.md", []byte("---\ntitle: [\n---\nBody\n"))
	assert.False(t, ok)
	assert.True(t, IsDocument("A.YML"))
}
