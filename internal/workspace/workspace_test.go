package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEphemeralWorkspace(t *testing.T) {
	m := New("")
	require.NoError(t, m.Create())
	dir := m.Path()
	assert.False(t, m.Persistent())
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "panorama-content-"))
	assert.DirExists(t, dir)

	require.NoError(t, m.Cleanup())
	assert.NoDirExists(t, dir)
	assert.Empty(t, m.Path())
	assert.NoError(t, m.Cleanup())
}

func TestPersistentWorkspace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkout")
	m := New(dir)
	require.NoError(t, m.Create())
	assert.True(t, m.Persistent())
	assert.Equal(t, dir, m.Path())

	marker := filepath.Join(dir, "marker")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o600))

	require.NoError(t, m.Cleanup())
	assert.FileExists(t, marker)

	require.NoError(t, m.Create())
	assert.FileExists(t, marker)
}
