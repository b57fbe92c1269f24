package registry

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache holds constructed handlers by qualified name. Concurrent first use
// of the same name constructs the handler once.
type Cache[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	group singleflight.Group
	gen   uint64
}

// NewCache creates an empty cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{items: map[string]T{}}
}

// Get returns the cached value for name, building it with build on a miss.
// Failed builds are not cached.
func (c *Cache[T]) Get(name string, build func() (T, error)) (T, error) {
	c.mu.RLock()
	v, ok := c.items[name]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := c.group.Do(name, func() (any, error) {
		c.mu.RLock()
		v, ok := c.items[name]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}
		built, err := build()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		// A Reset during construction invalidates the result.
		if c.gen == gen {
			c.items[name] = built
		}
		c.mu.Unlock()
		return built, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Reset drops every cached value.
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string]T{}
	c.gen++
}

// Len returns the number of cached values.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
