package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artwall/storefront/internal/domain"
	"github.com/artwall/storefront/internal/repository"
	"github.com/artwall/storefront/pkg/logger"
)

const testKey = "favorites:default:art-favorites"

// flakyKV is a MemoryKV whose writes can be switched off and whose next
// failReads reads fail.
type flakyKV struct {
	*repository.MemoryKV
	failing   atomic.Bool
	failReads atomic.Int32
	sets      atomic.Int32
}

var (
	errQuotaExceeded = errors.New("quota exceeded")
	errReadTimeout   = errors.New("i/o timeout")
)

func newFlakyKV() *flakyKV {
	return &flakyKV{MemoryKV: repository.NewMemoryKV()}
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	f.sets.Add(1)
	if f.failing.Load() {
		return errQuotaExceeded
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failReads.Add(-1) >= 0 {
		return nil, errReadTimeout
	}
	return f.MemoryKV.Get(ctx, key)
}

func mustStore(t *testing.T, ctx context.Context, kv repository.KVStore) *Store {
	t.Helper()
	s, err := NewStore(ctx, testKey, kv, logger.Nop())
	require.NoError(t, err)
	return s
}

func persisted(t *testing.T, kv repository.KVStore) []string {
	t.Helper()
	data, err := kv.Get(context.Background(), testKey)
	require.NoError(t, err)
	rec, err := domain.DecodeFavoritesRecord(data)
	require.NoError(t, err)
	return rec.FavoriteIDs
}

func TestStore_ToggleScenario(t *testing.T) {
	ctx := context.Background()
	s := mustStore(t, ctx, repository.NewMemoryKV())

	liked, err := s.Toggle(ctx, "x")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, s.IsFavorite("x"))

	liked, err = s.Toggle(ctx, "x")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.False(t, s.IsFavorite("x"))
}

func TestStore_DoubleToggleRestoresSet(t *testing.T) {
	ctx := context.Background()
	starts := [][]string{{}, {"a"}, {"a", "b", "c"}, {"x", "y"}}
	for _, start := range starts {
		for _, id := range []string{"a", "x", "new"} {
			t.Run(fmt.Sprintf("%v/%s", start, id), func(t *testing.T) {
				s := mustStore(t, ctx, repository.NewMemoryKV())
				for _, v := range start {
					_, err := s.Toggle(ctx, v)
					require.NoError(t, err)
				}
				before := s.IDs()

				_, err := s.Toggle(ctx, id)
				require.NoError(t, err)
				_, err = s.Toggle(ctx, id)
				require.NoError(t, err)

				assert.ElementsMatch(t, before, s.IDs())
			})
		}
	}
}

func TestStore_AcceptsUnknownIDs(t *testing.T) {
	s := mustStore(t, context.Background(), repository.NewMemoryKV())
	liked, err := s.Toggle(context.Background(), "not-in-any-catalog")
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestStore_RejectsInvalidIDs(t *testing.T) {
	s := mustStore(t, context.Background(), repository.NewMemoryKV())

	_, err := s.Toggle(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidArtworkID)

	long := make([]byte, maxArtworkIDLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = s.Toggle(context.Background(), string(long))
	assert.ErrorIs(t, err, domain.ErrInvalidArtworkID)
	assert.Zero(t, s.Len())
}

func TestStore_PersistsEveryToggle(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	s := mustStore(t, ctx, kv)

	_, _ = s.Toggle(ctx, "a")
	_, _ = s.Toggle(ctx, "b")
	assert.Equal(t, []string{"a", "b"}, persisted(t, kv))

	_, _ = s.Toggle(ctx, "a")
	assert.Equal(t, []string{"b"}, persisted(t, kv))

	raw, err := kv.Get(ctx, testKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"favoriteIds":["b"]}`, string(raw))
}

func TestStore_LoadsPersistedSet(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, testKey, []byte(`{"favoriteIds":["a","b","a",""]}`)))

	s := mustStore(t, ctx, kv)
	assert.Equal(t, []string{"a", "b"}, s.IDs())
	assert.True(t, s.IsFavorite("b"))
}

func TestStore_MalformedRecordStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, testKey, []byte(`{"favoriteIds":`)))

	s := mustStore(t, ctx, kv)
	assert.Zero(t, s.Len())

	_, err := s.Toggle(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, persisted(t, kv), "next toggle overwrites the corrupt record")
}

func TestStore_ReadFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	require.NoError(t, kv.Set(ctx, testKey, []byte(`{"favoriteIds":["a","b"]}`)))
	kv.failReads.Store(1)

	s, err := NewStore(ctx, testKey, kv, logger.Nop())
	assert.Nil(t, s)
	assert.ErrorIs(t, err, errReadTimeout)

	s = mustStore(t, ctx, kv)
	assert.Equal(t, []string{"a", "b"}, s.IDs())
}

func TestStore_RetiredStoreRefusesToggle(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	s := mustStore(t, ctx, kv)
	_, _ = s.Toggle(ctx, "a")

	require.True(t, s.retire())
	_, err := s.Toggle(ctx, "b")
	assert.ErrorIs(t, err, errStoreRetired)
	assert.Equal(t, []string{"a"}, s.IDs())
	assert.Equal(t, []string{"a"}, persisted(t, kv))
}

func TestStore_RetireRefusedWithUnsavedChanges(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	s := mustStore(t, ctx, kv)

	kv.failing.Store(true)
	_, _ = s.Toggle(ctx, "a")
	assert.False(t, s.retire())

	_, err := s.Toggle(ctx, "b")
	assert.NoError(t, err)
}

func TestStore_MissingRecordStartsEmpty(t *testing.T) {
	s := mustStore(t, context.Background(), repository.NewMemoryKV())
	assert.Zero(t, s.Len())
	assert.NotNil(t, s.IDs())
	assert.False(t, s.Dirty())
}

func TestStore_PersistFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	s := mustStore(t, ctx, kv)

	var failures int
	s.onPersistFailure = func(err error) {
		assert.ErrorIs(t, err, errQuotaExceeded)
		failures++
	}

	kv.failing.Store(true)
	liked, err := s.Toggle(ctx, "a")
	require.NoError(t, err, "a failed write must not fail the toggle")
	assert.True(t, liked)
	assert.True(t, s.IsFavorite("a"))
	assert.True(t, s.Dirty())
	assert.Equal(t, 1, failures)

	err = s.Flush(ctx)
	assert.ErrorIs(t, err, errQuotaExceeded)
	assert.True(t, s.Dirty())

	kv.failing.Store(false)
	require.NoError(t, s.Flush(ctx))
	assert.False(t, s.Dirty())
	assert.Equal(t, []string{"a"}, persisted(t, kv))
}

func TestStore_FlushIsNoopWhenClean(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	s := mustStore(t, ctx, kv)
	_, _ = s.Toggle(ctx, "a")
	writes := kv.sets.Load()

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, writes, kv.sets.Load())
}

func TestStore_LaterSuccessClearsDirty(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	s := mustStore(t, ctx, kv)

	kv.failing.Store(true)
	_, _ = s.Toggle(ctx, "a")
	require.True(t, s.Dirty())

	kv.failing.Store(false)
	_, _ = s.Toggle(ctx, "b")
	assert.False(t, s.Dirty())
	assert.Equal(t, []string{"a", "b"}, persisted(t, kv))
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := mustStore(t, ctx, repository.NewMemoryKV())

	var got []FavoriteChange
	unsubscribe := s.Subscribe(func(c FavoriteChange) { got = append(got, c) })

	_, _ = s.Toggle(ctx, "a")
	_, _ = s.Toggle(ctx, "b")
	_, _ = s.Toggle(ctx, "a")
	unsubscribe()
	_, _ = s.Toggle(ctx, "c")

	assert.Equal(t, []FavoriteChange{
		{ID: "a", Liked: true, Count: 1},
		{ID: "b", Liked: true, Count: 2},
		{ID: "a", Liked: false, Count: 1},
	}, got)
}

func TestStore_ObserverSeesNewState(t *testing.T) {
	ctx := context.Background()
	s := mustStore(t, ctx, repository.NewMemoryKV())

	var sawLiked bool
	s.Subscribe(func(c FavoriteChange) { sawLiked = s.IsFavorite(c.ID) })
	_, _ = s.Toggle(ctx, "a")
	assert.True(t, sawLiked)
}

func TestStore_ConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	s := mustStore(t, ctx, kv)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Toggle(ctx, fmt.Sprintf("art-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, s.Len())
	assert.ElementsMatch(t, s.IDs(), persisted(t, kv), "the newest snapshot must win")
}

func TestStore_ConcurrentSameID(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	s := mustStore(t, ctx, kv)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Toggle(ctx, "x")
		}()
	}
	wg.Wait()

	assert.False(t, s.IsFavorite("x"), "an even number of toggles nets to absent")
	assert.Empty(t, persisted(t, kv))
}

func TestStore_CanceledRequestStillPersists(t *testing.T) {
	kv, err := repository.NewFileKV(t.TempDir())
	require.NoError(t, err)
	s := mustStore(t, context.Background(), kv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Toggle(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, persisted(t, kv))
}
