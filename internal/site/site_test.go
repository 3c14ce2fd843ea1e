package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/panorama/internal/config"
	"git.home.luguber.info/inful/panorama/internal/history"
)

func project(t *testing.T) (string, *config.Config) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"content/index.md":       "---\ntitle: Home\n---\n# Home\n",
		"content/blog/post-1.md": "# Post one\n",
		"static/robots.txt":      "User-agent: *\n",
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	cfg := config.Default()
	cfg.Generate.Concurrency = 4
	return root, cfg
}

func TestRoutes(t *testing.T) {
	root, cfg := project(t)
	s, err := Open(context.Background(), cfg, Options{ProjectRoot: root})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Routes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/blog/post-1", "/"}, got)
	assert.Equal(t, filepath.Join(root, "content"), s.ContentDir())
	assert.Nil(t, s.History())
}

func TestGenerateRecordsHistoryAndMetrics(t *testing.T) {
	root, cfg := project(t)
	cfg.Generate.History.Path = "history.db"
	cfg.Generate.Cache.Ignore = append(cfg.Generate.Cache.Ignore, "history.db*")
	reg := prometheus.NewRegistry()

	s, err := Open(context.Background(), cfg, Options{ProjectRoot: root, Registry: reg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	res, err := s.Generate(context.Background(), GenerateOptions{})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	out := s.OutputDir("")
	assert.Equal(t, filepath.Join(root, "dist"), out)
	assert.FileExists(t, filepath.Join(out, "index.html"))
	assert.FileExists(t, filepath.Join(out, "blog", "post-1", "index.html"))
	assert.FileExists(t, filepath.Join(out, "robots.txt"))
	assert.FileExists(t, filepath.Join(out, "404.html"))

	again, err := s.Generate(context.Background(), GenerateOptions{})
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	events, err := s.History().ByRun(context.Background(), res.RunID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, history.TypeRunStarted, events[0].Type)
	assert.Equal(t, history.TypeRunCompleted, events[len(events)-1].Type)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestGenerateOutputOverride(t *testing.T) {
	root, cfg := project(t)
	s, err := Open(context.Background(), cfg, Options{ProjectRoot: root})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	res, err := s.Generate(context.Background(), GenerateOptions{OutputDir: "public", Force: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "public"), res.OutputDir)
	assert.FileExists(t, filepath.Join(root, "public", "index.html"))
}

func TestMissingContentDirFailsRun(t *testing.T) {
	_, cfg := project(t)
	s, err := Open(context.Background(), cfg, Options{ProjectRoot: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Generate(context.Background(), GenerateOptions{})
	require.Error(t, err)
	assert.NoDirExists(t, s.OutputDir(""))
}

func TestWatchRoots(t *testing.T) {
	root, cfg := project(t)
	s, err := Open(context.Background(), cfg, Options{ProjectRoot: root})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	assert.Equal(t, []string{filepath.Join(root, "content"), filepath.Join(root, "static")}, s.WatchRoots())
}

func TestUnreachableNATSDoesNotFailOpen(t *testing.T) {
	root, cfg := project(t)
	cfg.Generate.Notify.NATSURL = "nats://127.0.0.1:1"
	cfg.Generate.Notify.Timeout = 200 * time.Millisecond
	s, err := Open(context.Background(), cfg, Options{ProjectRoot: root})
	require.NoError(t, err)
	assert.Nil(t, s.publisher)
	require.NoError(t, s.Close())
}
