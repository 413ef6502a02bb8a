// Package editcache persists per component instance snapshots of edited
// source files. Storage failures never reach the caller: they are logged at
// debug level and the operation becomes a no-op.
package editcache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"tweakplay/logger"
	"tweakplay/model"
	"tweakplay/storage"
)

const (
	// Prefix namespaces every key this package writes.
	Prefix = "sandpack-playground-"
	// DefaultInstance is used when no instance id is given.
	DefaultInstance = "default"
	// DefaultReadTTL bounds how long a read is served from memory.
	DefaultReadTTL = 100 * time.Millisecond
)

// Key derives the storage key of a component instance.
func Key(component, instance string) string {
	if instance == "" {
		instance = DefaultInstance
	}
	return Prefix + component + "-" + instance
}

// Options configures a Cache.
type Options struct {
	// ReadTTL is the read cache lifetime. Zero means DefaultReadTTL and a
	// negative value disables the read cache.
	ReadTTL time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
	Log   *logger.Logger
}

type readEntry struct {
	files model.CachedFiles
	at    time.Time
}

// Cache is the edit cache. It is safe for concurrent use.
type Cache struct {
	backend storage.Backend
	ttl     time.Duration
	now     func() time.Time
	log     *logger.Logger

	mu    sync.Mutex
	reads map[string]readEntry
}

// New wraps backend.
func New(backend storage.Backend, opts Options) *Cache {
	ttl := opts.ReadTTL
	if ttl == 0 {
		ttl = DefaultReadTTL
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Cache{
		backend: backend,
		ttl:     ttl,
		now:     now,
		log:     opts.Log.With("component", "editcache"),
		reads:   make(map[string]readEntry),
	}
}

// Get returns the snapshot stored for the instance. Corrupted entries are
// removed and reported as missing.
func (c *Cache) Get(component, instance string) (model.CachedFiles, bool) {
	key := Key(component, instance)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.reads[key]; ok && c.ttl > 0 && now.Sub(e.at) < c.ttl {
		return e.files.Clone(), true
	}

	raw, err := c.backend.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.log.DebugErr(err, "failed to load cache entry")
		}
		return nil, false
	}
	if raw == "" {
		return nil, false
	}

	files, err := decode(raw)
	if err != nil {
		c.log.With("key", key).DebugErr(err, "evicting corrupted cache entry")
		delete(c.reads, key)
		if err := c.backend.Remove(key); err != nil {
			c.log.DebugErr(err, "failed to evict cache entry")
		}
		return nil, false
	}

	c.reads[key] = readEntry{files: files, at: now}
	c.log.WithFields(map[string]any{"key": key, "files": len(files)}).Debug("loaded cache entry")
	return files.Clone(), true
}

// Set stores files for the instance. The backend is only written when the
// serialized snapshot differs from the stored one; the result reports
// whether a write happened.
func (c *Cache) Set(component, instance string, files model.CachedFiles) bool {
	key := Key(component, instance)

	serialized, err := encode(files)
	if err != nil {
		c.log.DebugErr(err, "failed to encode cache entry")
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.backend.Get(key)
	if err == nil && existing == serialized {
		return false
	}

	if err := c.backend.Set(key, serialized); err != nil {
		c.log.With("key", key).DebugErr(err, "failed to save cache entry")
		return false
	}
	c.reads[key] = readEntry{files: files.Clone(), at: c.now()}
	c.log.WithFields(map[string]any{
		"key":   key,
		"files": len(files),
		"size":  humanize.Bytes(uint64(len(serialized))),
	}).Debug("saved cache entry")
	return true
}

// Clear removes the snapshot of one instance.
func (c *Cache) Clear(component, instance string) {
	key := Key(component, instance)

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.reads, key)
	if err := c.backend.Remove(key); err != nil {
		c.log.With("key", key).DebugErr(err, "failed to clear cache entry")
		return
	}
	c.log.With("key", key).Debug("cleared cache entry")
}

// ClearAll removes every snapshot under Prefix and returns how many were
// removed.
func (c *Cache) ClearAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.backend.Keys(Prefix)
	if err != nil {
		c.log.DebugErr(err, "failed to list cache entries")
		return 0
	}

	removed := 0
	for _, key := range keys {
		delete(c.reads, key)
		if err := c.backend.Remove(key); err != nil {
			c.log.With("key", key).DebugErr(err, "failed to clear cache entry")
			continue
		}
		removed++
	}
	c.log.With("count", removed).Debug("cleared all cache entries")
	return removed
}

// Entry describes one stored snapshot.
type Entry struct {
	Key   string `json:"key"`
	Files int    `json:"files"`
	Bytes int    `json:"bytes"`
}

// Entries lists stored snapshots. Unreadable entries are skipped.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.backend.Keys(Prefix)
	if err != nil {
		c.log.DebugErr(err, "failed to list cache entries")
		return nil
	}

	out := make([]Entry, 0, len(keys))
	for _, key := range keys {
		raw, err := c.backend.Get(key)
		if err != nil {
			continue
		}
		files, err := decode(raw)
		if err != nil {
			continue
		}
		out = append(out, Entry{Key: key, Files: len(files), Bytes: len(raw)})
	}
	return out
}

// encode serializes files deterministically: keys sorted, no HTML escaping.
func encode(files model.CachedFiles) (string, error) {
	if files == nil {
		files = model.CachedFiles{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(files); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decode(raw string) (model.CachedFiles, error) {
	var files model.CachedFiles
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		return nil, err
	}
	if files == nil {
		return nil, fmt.Errorf("cache entry is not an object")
	}
	return files, nil
}
