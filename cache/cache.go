// Package cache keeps recently loaded values in memory with an entry limit
// and a time to live. The studio uses it for decoded product photos so that
// reopening a product does not download and decode the same image again.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// LoaderFunc 数据加载函数
type LoaderFunc[V any] func(ctx context.Context) (V, error)

// Stats 缓存统计
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Sets      uint64 `json:"sets"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
}

// HitRate is hits over lookups, 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is an LRU cache whose entries also expire after ttl. It is safe for
// concurrent use.
type Cache[V any] struct {
	lru   *expirable.LRU[string, V]
	group singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	sets      atomic.Uint64
	evictions atomic.Uint64
}

// New holds at most size entries, each for at most ttl. A non-positive ttl
// keeps entries until they are evicted by size.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = 1
	}
	c := &Cache[V]{}
	c.lru = expirable.NewLRU[string, V](size, func(string, V) {
		c.evictions.Add(1)
	}, ttl)
	return c
}

func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

func (c *Cache[V]) Set(key string, v V) {
	c.sets.Add(1)
	c.lru.Add(key, v)
}

func (c *Cache[V]) Delete(key string) {
	c.lru.Remove(key)
}

func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// GetOrLoad returns the cached value for key or calls load once, however many
// callers ask for the same missing key at the same time. Failed loads are not
// cached.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load LoaderFunc[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	res, err, _ := c.group.Do(key, func() (any, error) {
		// a concurrent caller may have filled the entry meanwhile
		if v, ok := c.lru.Peek(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.lru.Len(),
	}
}
