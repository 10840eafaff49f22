package cache

import (
	"context"
	"errors"
	"time"

	"jobflow/metrics"
)

type instrumented struct {
	Cache
	m *metrics.Metrics
}

// WithMetrics counts hits and misses of c.
func WithMetrics(c Cache, m *metrics.Metrics) Cache {
	return &instrumented{Cache: c, m: m}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := i.Cache.Get(ctx, key)
	switch {
	case err == nil:
		i.m.CacheHit()
	case errors.Is(err, ErrMiss):
		i.m.CacheMiss()
	}
	return v, err
}

func (i *instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return i.Cache.Set(ctx, key, value, ttl)
}
