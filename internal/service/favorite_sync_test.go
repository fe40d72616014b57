package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artwall/storefront/internal/repository"
	"github.com/artwall/storefront/pkg/logger"
	"github.com/artwall/storefront/pkg/redis"
)

// loopbackHub delivers every published message synchronously to all buses
// attached to the same hub.
type loopbackHub struct {
	mu    sync.Mutex
	buses []*loopbackBus
}

type loopbackBus struct {
	hub      *loopbackHub
	mu       sync.Mutex
	handlers map[string][]redis.MessageHandler
}

func (h *loopbackHub) attach() *loopbackBus {
	b := &loopbackBus{hub: h, handlers: make(map[string][]redis.MessageHandler)}
	h.mu.Lock()
	h.buses = append(h.buses, b)
	h.mu.Unlock()
	return b
}

func (b *loopbackBus) Subscribe(...string) error { return nil }
func (b *loopbackBus) Start() error              { return nil }

func (b *loopbackBus) OnMessage(channel string, handler redis.MessageHandler) {
	b.mu.Lock()
	b.handlers[channel] = append(b.handlers[channel], handler)
	b.mu.Unlock()
}

func (b *loopbackBus) PublishJSON(_ context.Context, channel string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.hub.mu.Lock()
	buses := append([]*loopbackBus(nil), b.hub.buses...)
	b.hub.mu.Unlock()
	for _, other := range buses {
		other.mu.Lock()
		handlers := append([]redis.MessageHandler(nil), other.handlers[channel]...)
		other.mu.Unlock()
		for _, h := range handlers {
			_ = h(channel, string(data))
		}
	}
	return nil
}

func twoInstances(t *testing.T, kv repository.KVStore) (*FavoriteService, *FavoriteService) {
	t.Helper()
	hub := &loopbackHub{}
	a := NewFavoriteService(kv, "art-favorites", "shared", logger.Nop(), nil)
	b := NewFavoriteService(kv, "art-favorites", "shared", logger.Nop(), nil)
	require.NoError(t, NewFavoriteSync(hub.attach(), a, logger.Nop()).Start())
	require.NoError(t, NewFavoriteSync(hub.attach(), b, logger.Nop()).Start())
	return a, b
}

func TestFavoriteSync_RemoteWriteEvictsLocalCopy(t *testing.T) {
	ctx := context.Background()
	a, b := twoInstances(t, repository.NewMemoryKV())

	ids, err := b.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 1, b.Profiles())

	_, err = a.Toggle(ctx, "alice", "artwork-4")
	require.NoError(t, err)

	assert.Equal(t, 0, b.Profiles())
	ids, err = b.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"artwork-4"}, ids)
}

func TestFavoriteSync_OwnWritesKeepCache(t *testing.T) {
	ctx := context.Background()
	a, _ := twoInstances(t, repository.NewMemoryKV())

	_, err := a.Toggle(ctx, "alice", "artwork-4")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Profiles())
}

func TestFavoriteSync_DirtyStoreIsNotEvicted(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	a, b := twoInstances(t, kv)

	kv.failing.Store(true)
	_, err := b.Toggle(ctx, "alice", "artwork-1")
	require.NoError(t, err)
	require.Equal(t, 1, b.Profiles())

	kv.failing.Store(false)
	_, err = a.Toggle(ctx, "alice", "artwork-2")
	require.NoError(t, err)

	assert.Equal(t, 1, b.Profiles())
	ok, err := b.IsFavorite(ctx, "alice", "artwork-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFavoriteSync_IgnoresMalformedNotice(t *testing.T) {
	svc := NewFavoriteService(repository.NewMemoryKV(), "art-favorites", "shared", logger.Nop(), nil)
	fs := NewFavoriteSync((&loopbackHub{}).attach(), svc, logger.Nop())
	assert.Error(t, fs.handle("ch", "{"))
}
