package cache

import (
	"context"
	"errors"
)

// ErrMiss is returned by Get when the key has never been stored.
var ErrMiss = errors.New("cache miss")

// Cache is the lookup memo shared by the resolver and the space-time pass.
// Values are opaque byte payloads; a stored empty payload is a valid entry
// (used to memoize negative lookups). Lifecycle is one batch run.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, key string) error
}

type memoryCache struct {
	entries map[string][]byte
}

// NewMemory returns the default in-process cache. Not safe for concurrent
// use, matching the single-threaded batch model.
func NewMemory() Cache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	val, ok := c.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return val, nil
}

func (c *memoryCache) Set(_ context.Context, key string, val []byte) error {
	c.entries[key] = val
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}
