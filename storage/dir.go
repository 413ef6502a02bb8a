package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const fileExt = ".json"

// Dir stores one file per key under baseDir. Writes go through a temp file
// and a rename so readers never observe a partial value.
type Dir struct {
	baseDir string
	mu      sync.Mutex
}

// NewDir creates a Dir backend rooted at baseDir.
func NewDir(baseDir string) *Dir {
	return &Dir{baseDir: baseDir}
}

// EnsureDirs creates the base directory.
func (d *Dir) EnsureDirs() error {
	return os.MkdirAll(d.baseDir, 0o755)
}

func (d *Dir) Get(key string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.pathForKey(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storage: read %q: %w", key, err)
	}
	return string(data), nil
}

func (d *Dir) Set(key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.baseDir, 0o755); err != nil {
		return fmt.Errorf("storage: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(d.baseDir, sanitizeKey(key)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: write %q: %w", key, err)
	}

	if err := os.Rename(tmpName, d.pathForKey(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: commit %q: %w", key, err)
	}
	return nil
}

func (d *Dir) Remove(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := os.Remove(d.pathForKey(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %q: %w", key, err)
	}
	return nil
}

func (d *Dir) Keys(prefix string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := os.ReadDir(d.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: list: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// pathForKey escapes key reversibly so Keys can recover it from the name.
func (d *Dir) pathForKey(key string) string {
	return filepath.Join(d.baseDir, url.PathEscape(key)+fileExt)
}

// sanitizeKey only names temp files, so it may be lossy.
func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "entry"
	}

	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}
