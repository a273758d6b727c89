package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

const keyPrefix = "freebase2wikidata:v1:"

// Cache defines the interface for caching Wikidata responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a cache key for a kind of response (wikitext, entities, ...)
// from the parts identifying the request
func Key(kind string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyPrefix + kind + ":" + hex.EncodeToString(hash[:])
}

// New returns the layered cache described by cfg, or a no-op cache when disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return NoopCache{}
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// NoopCache never stores anything
type NoopCache struct{}

// Get always misses
func (NoopCache) Get(string) ([]byte, bool) {
	return nil, false
}

// Set discards the value
func (NoopCache) Set(string, []byte, time.Duration) error {
	return nil
}

// Delete is a no-op
func (NoopCache) Delete(string) error {
	return nil
}

// Clear is a no-op
func (NoopCache) Clear() error {
	return nil
}
