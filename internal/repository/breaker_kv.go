package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artwall/storefront/pkg/breaker"
)

// BreakerKV guards a remote KVStore with a circuit breaker and a per-call
// timeout. ErrNotFound from the inner store is a valid answer and does not
// count as a failure.
type BreakerKV struct {
	inner   KVStore
	cb      *breaker.CircuitBreaker
	timeout time.Duration
}

// NewBreakerKV wraps inner. A zero timeout leaves the caller's deadline alone.
func NewBreakerKV(inner KVStore, cb *breaker.CircuitBreaker, timeout time.Duration) *BreakerKV {
	return &BreakerKV{inner: inner, cb: cb, timeout: timeout}
}

func (b *BreakerKV) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value    []byte
		notFound bool
	)
	err := b.cb.Execute(func() error {
		ctx, cancel := b.withTimeout(ctx)
		defer cancel()
		v, err := b.inner.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			notFound = true
			return nil
		}
		value = v
		return err
	})
	if notFound {
		return nil, ErrNotFound
	}
	return value, err
}

func (b *BreakerKV) Set(ctx context.Context, key string, value []byte) error {
	return b.cb.Execute(func() error {
		ctx, cancel := b.withTimeout(ctx)
		defer cancel()
		return b.inner.Set(ctx, key, value)
	})
}

// Ping fails while the circuit is open, so /health reports a backend the
// store has stopped calling.
func (b *BreakerKV) Ping(ctx context.Context) error {
	if b.cb.GetState() != breaker.StateOpen {
		return nil
	}
	st := b.cb.Stats()
	return fmt.Errorf("%w: %s after %d failures", breaker.ErrOpen, st.Name, st.Failures)
}

func (b *BreakerKV) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}
