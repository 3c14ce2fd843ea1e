package workspace

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/panorama/internal/logfields"
)

// Manager handles one checkout directory.
type Manager struct {
	dir        string
	persistent bool
}

// New returns a persistent manager for dir, or an ephemeral one when dir is empty.
func New(dir string) *Manager {
	return &Manager{dir: dir, persistent: dir != ""}
}

// Create ensures the directory exists. Ephemeral managers get a new temporary
// directory on every call.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("failed to create persistent workspace directory: %w", err)
		}
		slog.Debug("Using persistent workspace", logfields.Path(m.dir))
		return nil
	}

	dir, err := os.MkdirTemp("", "panorama-content-*")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

func (m *Manager) Path() string     { return m.dir }
func (m *Manager) Persistent() bool { return m.persistent }

// Cleanup removes an ephemeral workspace. Persistent workspaces are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" || m.persistent {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
