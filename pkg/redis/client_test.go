package redis

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewClient(&Config{
		Host:        mr.Host(),
		Port:        port,
		DialTimeout: time.Second,
	})
	require.NoError(t, err, "failed to create redis client")
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host := mr.Host()
	port, _ := strconv.Atoi(mr.Port())
	mr.Close()

	_, err := NewClient(&Config{Host: host, Port: port, DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestClient_SetGet(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:key", "value", time.Minute))

	val, err := client.Get(ctx, "test:key")
	require.NoError(t, err)
	assert.Equal(t, "value", string(val))
	assert.Equal(t, time.Minute, mr.TTL("test:key"))

	mr.FastForward(2 * time.Minute)
	_, err = client.Get(ctx, "test:key")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, client.Ping(ctx))
}

func TestSingleFlightCache_GetJSON(t *testing.T) {
	client, mr := setupTestClient(t)
	cache := NewSingleFlightCache(client)
	ctx := context.Background()

	var calls int32
	loader := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return []string{"a", "b"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got []string
			_, err := cache.GetJSON(ctx, "test:sf", &got, time.Minute, loader)
			assert.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, got)
		}()
	}
	wg.Wait()
	loaded := atomic.LoadInt32(&calls)
	assert.Less(t, loaded, int32(10))

	var got []string
	hit, err := cache.GetJSON(ctx, "test:sf", &got, time.Minute, loader)
	require.NoError(t, err)
	assert.True(t, hit)

	mr.FastForward(2 * time.Minute)
	hit, err = cache.GetJSON(ctx, "test:sf", &got, time.Minute, loader)
	require.NoError(t, err)
	assert.False(t, hit, "an expired entry reloads")
	assert.Equal(t, loaded+1, atomic.LoadInt32(&calls))
}

func TestSingleFlightCache_CorruptEntryReloads(t *testing.T) {
	client, mr := setupTestClient(t)
	cache := NewSingleFlightCache(client)
	require.NoError(t, mr.Set("test:corrupt", "{not json"))

	var got map[string]int
	hit, err := cache.GetJSON(context.Background(), "test:corrupt", &got, time.Minute, func() (interface{}, error) {
		return map[string]int{"n": 1}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, map[string]int{"n": 1}, got)

	raw, err := mr.Get("test:corrupt")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, raw)
}

func TestSingleFlightCache_BackendDown(t *testing.T) {
	client, mr := setupTestClient(t)
	cache := NewSingleFlightCache(client)
	mr.SetError("ERR backend unavailable")

	var got []string
	_, err := cache.GetJSON(context.Background(), "test:down", &got, time.Minute, func() (interface{}, error) {
		return []string{"x"}, nil
	})
	assert.Error(t, err)
}
