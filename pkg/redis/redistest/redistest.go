// Package redistest starts an in-memory Redis for tests of packages built
// on pkg/redis.
package redistest

import (
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/artwall/storefront/pkg/redis"
)

// New starts a miniredis server and connects a client to it. Both are
// closed when the test ends.
func New(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return Connect(t, mr), mr
}

// Connect opens another client to an existing miniredis server, as a second
// service instance would.
func Connect(t testing.TB, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := redis.NewClient(&redis.Config{
		Host:        mr.Host(),
		Port:        port,
		DialTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
