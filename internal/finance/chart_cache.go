package finance

import (
	"sync"
	"time"
)

// ttlCache is a mutex-guarded map whose entries expire after ttl.
// A zero or negative ttl disables caching.
type ttlCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry[V]
	now     func() time.Time
}

func newTTLCache[V any](ttl time.Duration) *ttlCache[V] {
	return &ttlCache[V]{
		ttl:     ttl,
		entries: map[string]cacheEntry[V]{},
		now:     time.Now,
	}
}

func (c *ttlCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.now().Before(entry.createdAt.Add(c.ttl)) {
		delete(c.entries, key)
		return zero, false
	}
	return entry.value, true
}

func (c *ttlCache[V]) set(key string, v V) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{createdAt: c.now(), value: v}
	c.mu.Unlock()
}

func (c *ttlCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// chartCache holds rendered chart images.
type chartCache struct{ c *ttlCache[[]byte] }

func newChartCache(ttl time.Duration) *chartCache {
	return &chartCache{c: newTTLCache[[]byte](ttl)}
}

func (cc *chartCache) get(key string) ([]byte, bool) {
	img, ok := cc.c.get(key)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(img))
	copy(out, img)
	return out, true
}

func (cc *chartCache) set(key string, img []byte) {
	cp := make([]byte, len(img))
	copy(cp, img)
	cc.c.set(key, cp)
}
