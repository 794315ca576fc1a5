// Package cache stores fetched page bodies so repeated scans of the same
// listing or watchlist do not hit the network again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "leadradar:v1:"

// Key derives a cache key from a namespace and a URL
func Key(namespace, rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return keyPrefix + namespace + ":" + hex.EncodeToString(hash[:])
}
