package generate

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// stage is a temporary sibling of the output directory. Pages are written
// there and the whole tree replaces the output directory on commit.
type stage struct {
	dir   string
	final string
}

func newStage(final string) (*stage, error) {
	parent := filepath.Dir(final)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create output parent: %w", err)
	}
	dir, err := os.MkdirTemp(parent, ".panorama-stage-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &stage{dir: dir, final: final}, nil
}

// write stores data at the slash-separated rel path.
func (s *stage) write(rel string, data []byte) error {
	p := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// commit swaps the staged tree into place. The previous output is kept
// until the new one is in place and restored if the swap fails.
func (s *stage) commit() error {
	var old string
	if _, err := os.Stat(s.final); err == nil {
		tmp, err := os.MkdirTemp(filepath.Dir(s.final), ".panorama-old-*")
		if err != nil {
			return fmt.Errorf("reserve backup dir: %w", err)
		}
		if err := os.Remove(tmp); err != nil {
			return err
		}
		if err := os.Rename(s.final, tmp); err != nil {
			return fmt.Errorf("move previous output aside: %w", err)
		}
		old = tmp
	}
	if err := os.Rename(s.dir, s.final); err != nil {
		if old != "" {
			_ = os.Rename(old, s.final)
		}
		return fmt.Errorf("swap in output: %w", err)
	}
	if old != "" {
		_ = os.RemoveAll(old)
	}
	return os.Chmod(s.final, 0o755)
}

func (s *stage) discard() {
	_ = os.RemoveAll(s.dir)
}

// copyTree copies regular files from src into dst. A missing src is not an error.
func copyTree(src, dst string) (int, error) {
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", src)
	}

	n := 0
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(p, target); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
