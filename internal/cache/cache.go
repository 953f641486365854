package cache

import (
	"context"
	"time"
)

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Remember returns the cached value for key or computes, stores and returns it.
// Errors from load are returned as is and nothing is cached.
func Remember(ctx context.Context, c Cache, key string, ttl time.Duration, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}
	data, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Set(key, data, ttl); err != nil {
		return data, err
	}
	return data, nil
}
