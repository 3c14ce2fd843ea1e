package generate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/panorama/internal/content"
)

// CacheFile records the snapshot of the last successful run inside the output
// directory.
const CacheFile = ".panorama-cache.json"

type cacheRecord struct {
	Snapshot    string    `json:"snapshot"`
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Routes      int       `json:"routes"`
}

// Snapshot hashes the relative path and content of every file under root,
// skipping entries matched by ignore. Content documents contribute their
// content fingerprint instead of their raw bytes, so volatile frontmatter keys
// such as lastmod do not change the snapshot. Patterns are relative to root
// and match a whole path, a directory prefix or a glob over the whole path.
// Git metadata directories are always skipped.
func Snapshot(root string, ignore []string) (string, error) {
	patterns := make([]string, 0, len(ignore))
	for _, p := range ignore {
		p = strings.Trim(filepath.ToSlash(p), "/")
		if p != "" && p != "." {
			patterns = append(patterns, p)
		}
	}

	h := sha256.New()
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if ignored(rel, patterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		sum, err := documentHash(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s\x00%s\n", rel, sum)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("snapshot %s: %w", root, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// mixSnapshot folds inputs that live outside the project root, such as a
// content repository commit, into snapshot.
func mixSnapshot(snapshot string, inputs []string) string {
	if len(inputs) == 0 {
		return snapshot
	}
	h := sha256.New()
	io.WriteString(h, snapshot)
	for _, in := range inputs {
		fmt.Fprintf(h, "\x00%s", in)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func ignored(rel string, patterns []string) bool {
	for _, p := range patterns {
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// documentHash prefers the content fingerprint and falls back to a hash of
// the raw bytes.
func documentHash(p string) (string, error) {
	if !content.IsDocument(p) {
		return fileHash(p)
	}
	data, err := os.ReadFile(filepath.Clean(p))
	if err != nil {
		return "", err
	}
	if fp, ok := content.Fingerprint(p, data); ok {
		return "fp:" + fp, nil
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func fileHash(p string) (string, error) {
	f, err := os.Open(filepath.Clean(p))
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readCache(dir string) (*cacheRecord, error) {
	data, err := os.ReadFile(filepath.Join(dir, CacheFile))
	if err != nil {
		return nil, err
	}
	var rec cacheRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", CacheFile, err)
	}
	return &rec, nil
}

func writeCache(dir string, rec cacheRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, CacheFile), data, 0o644)
}
