// Package limiter provides fixed-window rate limiting backed by Redis.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	redispkg "github.com/artwall/storefront/pkg/redis"
)

// incrExpire increments a counter and starts its window on the first hit,
// in one round trip.
var incrExpire = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	client *redispkg.Client
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(client *redispkg.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow records one request against key and reports whether it is within
// limit for the current window.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	n, err := incrExpire.Run(ctx, rl.client.Universal(), []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return n <= limit, nil
}

// Remaining returns how many requests key may still make in this window.
func (rl *RateLimiter) Remaining(ctx context.Context, key string, limit int64) (int64, error) {
	raw, err := rl.client.Get(ctx, key)
	if errors.Is(err, redispkg.ErrKeyNotFound) {
		return limit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get counter: %w", err)
	}
	used, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid counter value: %w", err)
	}
	return max(limit-used, 0), nil
}

// ActionLimiter limits one named action per caller identity.
type ActionLimiter struct {
	limiter *RateLimiter
	action  string
	limit   int64
	window  time.Duration
}

// NewActionLimiter creates a limiter allowing limit calls of action per window.
func NewActionLimiter(client *redispkg.Client, action string, limit int64, window time.Duration) *ActionLimiter {
	return &ActionLimiter{limiter: NewRateLimiter(client), action: action, limit: limit, window: window}
}

// Allow checks whether identity may perform the action now.
func (a *ActionLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	return a.limiter.Allow(ctx, a.key(identity), a.limit, a.window)
}

// Remaining returns how many more times identity may act in this window.
func (a *ActionLimiter) Remaining(ctx context.Context, identity string) (int64, error) {
	return a.limiter.Remaining(ctx, a.key(identity), a.limit)
}

func (a *ActionLimiter) key(identity string) string {
	return redispkg.RateLimitKey(a.action, identity, int(a.window.Seconds()))
}

// Limit returns the configured limit per window.
func (a *ActionLimiter) Limit() int64 { return a.limit }
