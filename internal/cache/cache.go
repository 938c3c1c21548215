// Package cache holds per-run memos. Nothing here outlives the process.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Memo remembers values for the lifetime of one run.
type Memo[V any] struct {
	mu    sync.RWMutex
	items map[string]V
	hits  int
}

func New[V any]() *Memo[V] {
	return &Memo[V]{items: make(map[string]V)}
}

func (c *Memo[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *Memo[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.items[key]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *Memo[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Memo[V]) Hits() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits
}

// GenerateKey hashes the parts into a stable key.
func GenerateKey(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
