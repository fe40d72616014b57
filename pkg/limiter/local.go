package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxLocalIdentities caps the per-identity buckets kept by LocalLimiter.
const maxLocalIdentities = 10000

// LocalLimiter is an in-process token bucket per identity. It refills limit
// tokens evenly over window and allows bursts of up to limit.
type LocalLimiter struct {
	limit int64
	every rate.Limit

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLocalLimiter creates a limiter allowing limit calls per window.
func NewLocalLimiter(limit int64, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limit:   limit,
		every:   rate.Every(window / time.Duration(limit)),
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow takes one token from identity's bucket.
func (l *LocalLimiter) Allow(_ context.Context, identity string) (bool, error) {
	return l.bucket(identity).Allow(), nil
}

// Remaining returns the whole tokens left in identity's bucket.
func (l *LocalLimiter) Remaining(_ context.Context, identity string) (int64, error) {
	return max(int64(l.bucket(identity).Tokens()), 0), nil
}

// Limit returns the burst size.
func (l *LocalLimiter) Limit() int64 { return l.limit }

func (l *LocalLimiter) bucket(identity string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[identity]
	if ok {
		return b
	}
	// Full buckets carry no state worth keeping.
	if len(l.buckets) >= maxLocalIdentities {
		for id, old := range l.buckets {
			if old.Tokens() >= float64(l.limit) {
				delete(l.buckets, id)
			}
		}
	}
	b = rate.NewLimiter(l.every, int(l.limit))
	l.buckets[identity] = b
	return b
}
