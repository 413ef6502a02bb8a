// Package storage provides the namespaced key/value text stores that back
// the edit cache: an in-process map, a directory of JSON files and a SQLite
// database.
package storage

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a string key/value store. Implementations must be safe for
// concurrent use.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	// Keys lists stored keys starting with prefix in lexical order.
	Keys(prefix string) ([]string, error)
}

// Kind selects a Backend implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindDir    Kind = "dir"
	KindSQLite Kind = "sqlite"
)

// Open creates the backend of the given kind rooted in dataDir. The caller
// closes the returned backend with Close when it implements io.Closer.
func Open(kind Kind, dataDir string) (Backend, error) {
	switch kind {
	case KindMemory, "":
		return NewMemory(), nil
	case KindDir:
		b := NewDir(filepath.Join(dataDir, "cache"))
		if err := b.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("storage: ensure cache dir: %w", err)
		}
		return b, nil
	case KindSQLite:
		return OpenSQLite(filepath.Join(dataDir, "tweakplay.db"))
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", kind)
	}
}

// Close closes b if it holds resources.
func Close(b Backend) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Memory keeps everything in a map. Contents are lost with the process.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
