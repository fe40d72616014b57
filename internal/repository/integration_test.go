package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artwall/storefront/pkg/breaker"
	"github.com/artwall/storefront/pkg/db"
	"github.com/artwall/storefront/pkg/redis/redistest"
)

func TestRedisKV(t *testing.T) {
	client, mr := redistest.New(t)
	testKVContract(t, NewRedisKV(client))

	assert.True(t, mr.Exists("aw:favorites:p1:art-favorites"), "keys are namespaced")
	assert.Zero(t, mr.TTL("aw:favorites:p1:art-favorites"), "records never expire")
}

func TestRedisKV_OutageOpensBreaker(t *testing.T) {
	client, mr := redistest.New(t)
	kv := NewBreakerKV(NewRedisKV(client), breaker.New(breaker.Config{Name: "redis", MaxFailures: 2, Timeout: time.Minute}), time.Second)
	ctx := context.Background()

	_, err := kv.Get(ctx, "favorites:p1:art-favorites")
	require.ErrorIs(t, err, ErrNotFound)

	mr.SetError("ERR backend unavailable")
	for i := 0; i < 2; i++ {
		_, err = kv.Get(ctx, "favorites:p1:art-favorites")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	}
	_, err = kv.Get(ctx, "favorites:p1:art-favorites")
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.ErrorIs(t, kv.Ping(ctx), breaker.ErrOpen)
}

// TestPostgresKV needs PostgreSQL on localhost:5432.
// Skip it with: go test -short

func TestPostgresKV(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}
	ctx := context.Background()
	cfg := &db.Config{Host: "localhost", Port: 5432, User: "postgres", Password: "postgres", Database: "artwall_test"}

	conn, err := db.OpenSQL(ctx, cfg)
	require.NoError(t, err)
	m, err := db.NewMigrator(conn, MigrationsFS, "migrations")
	require.NoError(t, err)
	require.NoError(t, m.Up())

	pool, err := db.NewPool(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "TRUNCATE kv_entries")
		pool.Close()
		m.Close()
	})

	testKVContract(t, NewPostgresKV(pool))
}
