package gitsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/panorama/internal/config"
	ferrors "git.home.luguber.info/inful/panorama/internal/foundation/errors"
)

type remoteFixture struct {
	bare string
	seed *git.Repository
	dir  string
}

func newRemote(t *testing.T) *remoteFixture {
	t.Helper()
	tmp := t.TempDir()
	bare := filepath.Join(tmp, "remote.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	dir := filepath.Join(tmp, "seed")
	seed, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = seed.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{bare}})
	require.NoError(t, err)
	return &remoteFixture{bare: bare, seed: seed, dir: dir}
}

func (r *remoteFixture) commit(t *testing.T, name, body string) string {
	t.Helper()
	full := filepath.Join(r.dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o600))
	wt, err := r.seed.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	h, err := wt.Commit("add "+name, &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(t, err)
	require.NoError(t, r.seed.Push(&git.PushOptions{RemoteName: "origin"}))
	return h.String()
}

func TestSyncClonesThenUpdates(t *testing.T) {
	remote := newRemote(t)
	first := remote.commit(t, "content/index.md", "# Home\n")

	cfg := config.GitSourceConfig{URL: remote.bare, Path: "content", Workspace: filepath.Join(t.TempDir(), "ws")}
	src := New(cfg)
	t.Cleanup(func() { _ = src.Close() })

	res, err := src.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Cloned)
	assert.Equal(t, first, res.Commit)
	assert.Equal(t, filepath.Join(cfg.Workspace, "content"), res.ContentDir)
	assert.FileExists(t, filepath.Join(res.ContentDir, "index.md"))

	res, err = src.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Cloned)
	assert.False(t, res.Changed)

	second := remote.commit(t, "content/blog/post-1.md", "# Post\n")
	res, err = src.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, second, res.Commit)
	assert.FileExists(t, filepath.Join(res.ContentDir, "blog", "post-1.md"))
}

func TestSyncDiscardsLocalEdits(t *testing.T) {
	remote := newRemote(t)
	remote.commit(t, "content/index.md", "# Home\n")

	cfg := config.GitSourceConfig{URL: remote.bare, Path: "content", Workspace: filepath.Join(t.TempDir(), "ws")}
	src := New(cfg)
	res, err := src.Sync(context.Background())
	require.NoError(t, err)

	file := filepath.Join(res.ContentDir, "index.md")
	require.NoError(t, os.WriteFile(file, []byte("local edit"), 0o600))

	_, err = src.Sync(context.Background())
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "# Home\n", string(data))
}

func TestEphemeralWorkspaceRemovedOnClose(t *testing.T) {
	remote := newRemote(t)
	remote.commit(t, "content/index.md", "# Home\n")

	src := New(config.GitSourceConfig{URL: remote.bare, Path: "content"})
	res, err := src.Sync(context.Background())
	require.NoError(t, err)
	assert.DirExists(t, res.Dir)

	require.NoError(t, src.Close())
	assert.NoDirExists(t, res.Dir)
}

func TestSyncMissingRepositoryIsGitError(t *testing.T) {
	cfg := config.GitSourceConfig{
		URL:   filepath.Join(t.TempDir(), "missing.git"),
		Path:  "content",
		Retry: config.RetryConfig{Backoff: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 1},
	}
	src := New(cfg)
	t.Cleanup(func() { _ = src.Close() })

	_, err := src.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryGit))
}

func TestAuthMethod(t *testing.T) {
	m, err := authMethod(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = authMethod(&config.AuthConfig{Type: config.AuthTypeToken, Token: "secret"})
	require.NoError(t, err)
	assert.Equal(t, &http.BasicAuth{Username: "token", Password: "secret"}, m)

	m, err = authMethod(&config.AuthConfig{Type: config.AuthTypeBasic, Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, &http.BasicAuth{Username: "u", Password: "p"}, m)

	_, err = authMethod(&config.AuthConfig{Type: config.AuthTypeToken})
	assert.Error(t, err)
	_, err = authMethod(&config.AuthConfig{Type: "ssh"})
	assert.Error(t, err)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, isPermanent(transport.ErrAuthenticationRequired))
	assert.True(t, isPermanent(transport.ErrRepositoryNotFound))
	assert.True(t, isPermanent(context.Canceled))
	assert.True(t, isPermanent(errors.New("permission denied")))
	assert.False(t, isPermanent(errors.New("connection reset by peer")))
	assert.False(t, isPermanent(errors.New("i/o timeout")))
}
