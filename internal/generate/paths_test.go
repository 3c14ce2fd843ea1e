package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFile(t *testing.T) {
	tests := []struct {
		route      string
		subfolders bool
		want       string
	}{
		{"/", true, "index.html"},
		{"/", false, "index.html"},
		{"/about", true, "about/index.html"},
		{"/about", false, "about.html"},
		{"/blog/post-1", true, "blog/post-1/index.html"},
		{"/blog/index", true, "blog/index/index.html"},
		{"/blog/", false, "blog.html"},
	}
	for _, tt := range tests {
		got, err := OutputFile(tt.route, tt.subfolders)
		require.NoError(t, err, tt.route)
		assert.Equal(t, tt.want, got, tt.route)
	}
}

func TestValidateRoute(t *testing.T) {
	for _, bad := range []string{"", "about", "/../etc", "/a/./b", "/a\\b"} {
		assert.Error(t, ValidateRoute(bad), bad)
	}
	assert.NoError(t, ValidateRoute("/a/b"))
}

func TestCrawlLinks(t *testing.T) {
	page := []byte(`<html><body>
<a href="/about">a</a>
<a href="/about#team">dup</a>
<a href="/blog/?page=2">blog</a>
<a href="/">home</a>
<a href="/files/report.pdf">pdf</a>
<a href="https://example.com/x">ext</a>
<a href="//cdn.example.com/x">cdn</a>
<a href="relative">rel</a>
<a href="#top">frag</a>
<link href="/feed">
</body></html>`)
	assert.Equal(t, []string{"/about", "/blog", "/"}, crawlLinks(page, "/"))
}

func TestCrawlLinksWithBase(t *testing.T) {
	page := []byte(`<a href="/docs/guide">g</a><a href="/docs/">root</a><a href="/other">x</a>`)
	assert.Equal(t, []string{"/guide", "/"}, crawlLinks(page, "/docs/"))
}
