package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DirStore keeps artifacts in a directory below a public web root.
// Writes go to a temp file in the same directory and are renamed into
// place, so readers never observe partial files.
type DirStore struct {
	root string // public root
	dir  string // root/subdir
}

var _ Store = (*DirStore)(nil)

// NewDirStore creates (if needed) publicRoot/subdir.
func NewDirStore(publicRoot, subdir string) (*DirStore, error) {
	root, err := filepath.Abs(publicRoot)
	if err != nil {
		return nil, fmt.Errorf("artifact: resolve %s: %w", publicRoot, err)
	}
	dir := filepath.Join(root, filepath.Clean("/"+subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create %s: %w", dir, err)
	}
	return &DirStore{root: root, dir: dir}, nil
}

// Dir returns the directory artifacts are written to.
func (s *DirStore) Dir() string { return s.dir }

// Save implements Store.
func (s *DirStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("artifact: create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("artifact: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("artifact: close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("artifact: chmod %s: %w", name, err)
	}

	target := filepath.Join(s.dir, name)
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("artifact: rename %s: %w", name, err)
	}
	return PublicPath(s.root, target), nil
}

// Latest implements Store. The newest modification time wins; ties are
// broken by the lexically greater name.
func (s *DirStore) Latest(pattern *regexp.Regexp) string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return ""
	}

	var (
		best     string
		bestTime int64
	)
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || !pattern.MatchString(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		mt := info.ModTime().UnixNano()
		if best == "" || mt > bestTime || (mt == bestTime && name > best) {
			best, bestTime = name, mt
		}
	}
	if best == "" {
		return ""
	}
	return PublicPath(s.root, filepath.Join(s.dir, best))
}

// Exists implements Store. Paths resolving outside the public root are
// reported as missing.
func (s *DirStore) Exists(publicPath string) bool {
	if publicPath == "" {
		return false
	}
	rel := filepath.FromSlash(strings.TrimLeft(publicPath, "/"))
	full := filepath.Join(s.root, rel)
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}
