package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// SingleFlightCache memoizes JSON values in Redis and collapses concurrent
// loads of the same key into one loader call.
type SingleFlightCache struct {
	client *Client
	sf     singleflight.Group
}

// NewSingleFlightCache creates a new singleflight cache.
func NewSingleFlightCache(client *Client) *SingleFlightCache {
	return &SingleFlightCache{client: client}
}

// GetJSON decodes the cached value for key into dst. On a miss it runs
// loader once per key across concurrent callers, stores the result with ttl
// and decodes it into dst. hit reports whether the value came from Redis.
//
// A failure to write the cache is not an error; the loaded value is still
// returned.
func (c *SingleFlightCache) GetJSON(ctx context.Context, key string, dst interface{}, ttl time.Duration, loader func() (interface{}, error)) (hit bool, err error) {
	val, err := c.client.Get(ctx, key)
	if err == nil {
		if err := json.Unmarshal(val, dst); err == nil {
			return true, nil
		}
		// corrupt entry: fall through and reload
	} else if !errors.Is(err, ErrKeyNotFound) {
		return false, fmt.Errorf("cache lookup error: %w", err)
	}

	data, err, _ := c.sf.Do(key, func() (interface{}, error) {
		v, err := loader()
		if err != nil {
			return nil, fmt.Errorf("loader error: %w", err)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}
		_ = c.client.Set(ctx, key, raw, ttl)
		return raw, nil
	})
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data.([]byte), dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return false, nil
}
