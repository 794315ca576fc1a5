package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// DiskCache persists entries as one JSON file per key
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a disk cache rooted at dir
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl, now: time.Now}
}

type diskEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get returns a live entry; expired or corrupt files are removed
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(raw, &entry); err != nil || c.now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}
	return entry.Data, true
}

// Set writes atomically via a temp file and rename
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	raw, err := json.Marshal(diskEntry{Data: value, ExpiresAt: c.now().Add(ttl)})
	if err != nil {
		return eris.Wrap(err, "marshal cache entry")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return eris.Wrapf(err, "create cache dir %s", c.dir)
	}

	tmp, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return eris.Wrap(err, "create temp cache file")
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "write cache file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "close cache file")
	}
	return eris.Wrap(os.Rename(tmp.Name(), c.path(key)), "rename cache file")
}

// Delete removes an entry; a missing entry is not an error
func (c *DiskCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrap(err, "delete cache file")
	}
	return nil
}

// Clear removes the whole cache directory
func (c *DiskCache) Clear() error {
	return eris.Wrap(os.RemoveAll(c.dir), "clear cache dir")
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".cache")
}
