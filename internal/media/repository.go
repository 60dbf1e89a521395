// Package media is WeiBack's content-addressed filesystem store for
// pictures and videos, plus an in-memory LRU over their bytes.
// The atomic write (temp file in the target dir, fsync, rename) is
// grounded on agentic-research-mache's internal/writeback/splice.go.
package media

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Repository stores media bytes under root using the path policy
// spec.md §3 invariant 3 describes: path is content-addressed by the
// URL's basename, laid out two-level (<first-2-chars>/<basename>)
// to avoid one giant flat directory.
type Repository struct {
	root string
}

// NotFoundError distinguishes a media file absent from disk from
// other I/O failures, so a GUI can render a broken-image icon for it
// without logging noise (spec.md §7).
type NotFoundError struct {
	RelPath string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("media not found: %s", e.RelPath) }

func NewRepository(root string) *Repository {
	return &Repository{root: root}
}

// PathFor returns the repository-relative path a given source URL's
// bytes would be stored at: <first-2-chars-of-basename>/<basename>
// (spec.md §6), so the directory reuses the remote's own
// content-addressed filename rather than a hash WeiBack invents.
func PathFor(rawURL string) (string, error) {
	base, err := basename(rawURL)
	if err != nil {
		return "", err
	}
	prefix := base
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(prefix, base), nil
}

// PathFor is the method form of the package-level PathFor, so callers
// holding a Repository (or CachedRepository) can satisfy interfaces
// that only see an instance, not the package.
func (r *Repository) PathFor(rawURL string) (string, error) {
	return PathFor(rawURL)
}

func basename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	base := filepath.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "", fmt.Errorf("url %q has no basename", rawURL)
	}
	return base, nil
}

// Store writes b to the content-addressed path for rawURL, atomically
// (temp file alongside the destination, fsync, rename), and returns
// the repository-relative path that was written.
func (r *Repository) Store(rawURL string, b []byte) (string, error) {
	rel, err := PathFor(rawURL)
	if err != nil {
		return "", err
	}
	full := filepath.Join(r.root, rel)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".weiback-media-*")
	if err != nil {
		return "", fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write temp %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("fsync temp %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename temp to %s: %w", full, err)
	}
	return rel, nil
}

// Open reads the bytes stored at a previously-returned relative path.
func (r *Repository) Open(relPath string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(r.root, relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{RelPath: relPath}
		}
		return nil, fmt.Errorf("open media %s: %w", relPath, err)
	}
	return b, nil
}

// Delete removes the file at relPath. A missing file is not an error:
// Cleanup callers treat "already gone" as success.
func (r *Repository) Delete(relPath string) error {
	err := os.Remove(filepath.Join(r.root, relPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media %s: %w", relPath, err)
	}
	return nil
}

// Root reports the repository's filesystem root, for callers (the
// Exporter) that need to hardlink/copy straight from storage.
func (r *Repository) Root() string { return r.root }

// AbsPath returns the absolute path for a repository-relative path.
func (r *Repository) AbsPath(relPath string) string {
	return filepath.Join(r.root, relPath)
}
