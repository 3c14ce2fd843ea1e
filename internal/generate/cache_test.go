package generate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/panorama/internal/config"
)

func TestSnapshotIgnores(t *testing.T) {
	root := t.TempDir()
	write := func(rel, body string) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	write("content/index.md", "home")
	write("README.md", "readme")
	write("node_modules/x/index.js", "js")
	write("dist/index.html", "out")

	ignore := []string{"README.md", "node_modules", "dist"}
	base, err := Snapshot(root, ignore)
	require.NoError(t, err)

	write("README.md", "changed")
	write("node_modules/x/index.js", "changed")
	write("dist/index.html", "changed")
	same, err := Snapshot(root, ignore)
	require.NoError(t, err)
	assert.Equal(t, base, same)

	write("content/index.md", "changed")
	changed, err := Snapshot(root, ignore)
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)
}

func TestIgnored(t *testing.T) {
	patterns := []string{".github", "dist", "*.log", "docs/drafts"}
	assert.True(t, ignored(".github/workflows/ci.yml", patterns))
	assert.True(t, ignored("dist", patterns))
	assert.True(t, ignored("debug.log", patterns))
	assert.True(t, ignored("docs/drafts/x.md", patterns))
	assert.False(t, ignored("docs/guide.md", patterns))
	assert.False(t, ignored("distribution.md", patterns))
	assert.False(t, ignored("a/b/debug.log", patterns))
	assert.False(t, ignored("content/dist/page.md", patterns))
}

func TestSnapshotIgnoreIsAnchoredAtRoot(t *testing.T) {
	root := t.TempDir()
	write := func(rel, body string) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	write("content/test/page.md", "# Page\n")
	write("content/blog/README.md", "# Readme\n")

	ignore := config.Default().Generate.Cache.Ignore
	base, err := Snapshot(root, ignore)
	require.NoError(t, err)

	write("content/test/page.md", "# Page\n\nEdited.\n")
	afterTest, err := Snapshot(root, ignore)
	require.NoError(t, err)
	assert.NotEqual(t, base, afterTest)

	write("content/blog/README.md", "# Readme\n\nEdited.\n")
	afterReadme, err := Snapshot(root, ignore)
	require.NoError(t, err)
	assert.NotEqual(t, afterTest, afterReadme)
}

func TestSnapshotUsesContentFingerprints(t *testing.T) {
	root := t.TempDir()
	page := filepath.Join(root, "content", "page.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(page), 0o755))
	write := func(body string) string {
		require.NoError(t, os.WriteFile(page, []byte(body), 0o600))
		s, err := Snapshot(root, nil)
		require.NoError(t, err)
		return s
	}

	base := write("---\ntitle: Page\nlastmod: 2024-01-01\n---\nBody\n")
	assert.Equal(t, base, write("---\ntitle: Page\nlastmod: 2025-06-30\n---\nBody\n"))
	assert.NotEqual(t, base, write("---\ntitle: Renamed\nlastmod: 2025-06-30\n---\nBody\n"))
	assert.NotEqual(t, base, write("---\ntitle: Page\nlastmod: 2024-01-01\n---\nOther body\n"))

	// Malformed frontmatter still counts by its raw bytes.
	broken := write("---\ntitle: [\n---\nBody\n")
	assert.NotEqual(t, broken, write("---\ntitle: [\n---\nBody changed\n"))
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeCache(dir, cacheRecord{Snapshot: "abc", Routes: 3}))
	rec, err := readCache(dir)
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.Snapshot)
	assert.Equal(t, 3, rec.Routes)
}

func TestMixSnapshot(t *testing.T) {
	assert.Equal(t, "abc", mixSnapshot("abc", nil))
	a := mixSnapshot("abc", []string{"commit-1"})
	b := mixSnapshot("abc", []string{"commit-2"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, mixSnapshot("abc", []string{"commit-1"}))
}

func TestSnapshotSkipsNestedGitMetadata(t *testing.T) {
	root := t.TempDir()
	head := filepath.Join(root, "workspace", "content", ".git", "FETCH_HEAD")
	require.NoError(t, os.MkdirAll(filepath.Dir(head), 0o755))
	require.NoError(t, os.WriteFile(head, []byte("a"), 0o600))
	base, err := Snapshot(root, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(head, []byte("b"), 0o600))
	same, err := Snapshot(root, nil)
	require.NoError(t, err)
	assert.Equal(t, base, same)
}

func TestCacheIgnoreCoversNestedOutput(t *testing.T) {
	f := newFixture(t)
	g := f.generator(t, siteStore(), WithOutputDir(filepath.Join(f.root, "public", "site")))
	ignore := g.cacheIgnore()
	assert.True(t, ignored("public/site/index.html", ignore))
	assert.True(t, ignored("public/.panorama-stage-123/index.html", ignore))
	assert.True(t, ignored("public/.panorama-old-9", ignore))
	assert.False(t, ignored("public/robots.txt", ignore))
}
