// Package cache remembers which files are already formatted so directory
// runs can skip them.
package cache

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/keyfmt/internal/types"
)

const cacheFileName = "format_cache.gob"

type Entry struct {
	Hash         string
	FormattedAt  time.Time
	LastAccessed time.Time
}

// snapshot is the on-disk form of the cache.
type snapshot struct {
	Fingerprint string
	Entries     map[string]Entry
}

// Cache maps file paths to the hash of their last known formatted content.
// Entries are only valid for the configuration fingerprint they were
// recorded with.
type Cache struct {
	CacheDir    string
	fingerprint string
	entries     map[string]Entry
	mutex       sync.Mutex
	maxAge      time.Duration
}

// New opens (or creates) the cache in cacheDir for the given fingerprint.
// Entries recorded under a different fingerprint are dropped.
func New(cacheDir, fingerprint string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		CacheDir:    cacheDir,
		fingerprint: fingerprint,
		entries:     make(map[string]Entry),
	}
	if err := c.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}
	return c, nil
}

// Fingerprint identifies a configuration. Changing any setting that affects
// output invalidates the cache.
func Fingerprint(cfg types.Config) (string, error) {
	d, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", md5.Sum(d)), nil
}

func (c *Cache) path() string {
	return filepath.Join(c.CacheDir, cacheFileName)
}

func (c *Cache) load() error {
	file, err := os.Open(c.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}
	if snap.Fingerprint == c.fingerprint && snap.Entries != nil {
		c.entries = snap.Entries
	}
	return nil
}

// Save persists the cache.
func (c *Cache) Save() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.save()
}

func (c *Cache) save() error {
	c.prune()

	file, err := os.Create(c.path())
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	snap := snapshot{Fingerprint: c.fingerprint, Entries: c.entries}
	if err := gob.NewEncoder(file).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	return nil
}

// Mark records content as the formatted state of filename.
func (c *Cache) Mark(filename string, content []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	c.entries[filename] = Entry{
		Hash:         hashBytes(content),
		FormattedAt:  now,
		LastAccessed: now,
	}
}

// Fresh reports whether filename still holds the content recorded by Mark.
func (c *Cache) Fresh(filename string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[filename]
	if !exists {
		return false
	}

	if c.maxAge > 0 && time.Since(entry.FormattedAt) > c.maxAge {
		delete(c.entries, filename)
		return false
	}

	hash, err := getFileHash(filename)
	if err != nil || hash != entry.Hash {
		delete(c.entries, filename)
		return false
	}

	entry.LastAccessed = time.Now()
	c.entries[filename] = entry
	return true
}

// prune drops entries no run has looked at within maxAge, such as those of
// deleted files.
func (c *Cache) prune() {
	if c.maxAge <= 0 {
		return
	}
	for filename, entry := range c.entries {
		if time.Since(entry.LastAccessed) > c.maxAge {
			delete(c.entries, filename)
		}
	}
}

// SetMaxAge bounds how long an entry stays valid. Zero disables expiry.
func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

// InvalidateAll forgets every entry and persists the empty cache.
func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]Entry)
	_ = c.save() // manual operation, a stale file is harmless
}

func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

func hashBytes(b []byte) string {
	return fmt.Sprintf("%x", md5.Sum(b))
}

func getFileHash(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
