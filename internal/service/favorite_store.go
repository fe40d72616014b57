package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/artwall/storefront/internal/domain"
	"github.com/artwall/storefront/internal/repository"
	"github.com/artwall/storefront/pkg/logger"
)

// maxArtworkIDLen bounds identifiers accepted by Toggle.
const maxArtworkIDLen = 128

// errStoreRetired is returned by Toggle on a store the registry has dropped.
var errStoreRetired = errors.New("favorites store retired")

// FavoriteChange is delivered to observers after every toggle.
type FavoriteChange struct {
	ID    string
	Liked bool
	Count int
}

// Store owns one profile's favorites set. The set lives in memory and is
// written through to a KVStore on every toggle. A failed write never fails
// the toggle: the store is marked dirty and Flush retries later.
type Store struct {
	key string
	kv  repository.KVStore
	log logger.Logger

	mu        sync.Mutex
	ids       []string // insertion order
	members   map[string]struct{}
	version   uint64
	dirty     bool
	retired   bool
	observers map[int]func(FavoriteChange)
	nextObs   int

	// saveMu serializes writes; savedVersion is the newest snapshot written.
	saveMu       sync.Mutex
	savedVersion uint64

	onPersistFailure func(error)
}

// NewStore loads the set persisted under key. A missing or malformed record
// yields an empty set. Any other read failure is returned, since starting
// empty would overwrite the record on the next toggle.
func NewStore(ctx context.Context, key string, kv repository.KVStore, log logger.Logger) (*Store, error) {
	s := &Store{
		key:       key,
		kv:        kv,
		log:       log.WithFields(logger.String("store_key", key)),
		members:   make(map[string]struct{}),
		observers: make(map[int]func(FavoriteChange)),
	}
	if err := s.load(ctx); err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	rec, err := domain.DecodeFavoritesRecord(data)
	if err != nil {
		s.log.Warn("malformed favorites record, starting empty", logger.Error(err))
		return nil
	}
	for _, id := range rec.FavoriteIDs {
		if id == "" {
			continue
		}
		if _, dup := s.members[id]; dup {
			continue
		}
		s.members[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return nil
}

// Toggle removes id if present, otherwise adds it, and returns whether id
// is a favorite afterwards. Observers are notified before the write to the
// KVStore. It fails with ErrInvalidArtworkID, or errStoreRetired once the
// registry has dropped the store.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	if id == "" || len(id) > maxArtworkIDLen {
		return false, domain.ErrInvalidArtworkID
	}

	s.mu.Lock()
	if s.retired {
		s.mu.Unlock()
		return false, errStoreRetired
	}
	_, liked := s.members[id]
	liked = !liked
	if liked {
		s.members[id] = struct{}{}
		s.ids = append(s.ids, id)
	} else {
		delete(s.members, id)
		s.ids = removeID(s.ids, id)
	}
	s.version++
	version := s.version
	snapshot := append([]string(nil), s.ids...)
	observers := make([]func(FavoriteChange), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	change := FavoriteChange{ID: id, Liked: liked, Count: len(snapshot)}
	for _, fn := range observers {
		fn(change)
	}

	if err := s.save(context.WithoutCancel(ctx), version, snapshot); err != nil {
		s.log.WithContext(ctx).Warn("failed to persist favorites",
			logger.String("artwork_id", id), logger.Error(err))
	}
	return liked, nil
}

// IsFavorite reports whether id is in the set.
func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[id]
	return ok
}

// IDs returns the favorites in the order they were added.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.ids...)
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Dirty reports whether the last write failed and has not been retried.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// retire marks the store as dropped from the registry. It refuses while a
// write is pending or has failed.
func (s *Store) retire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty || s.version != s.savedVersion {
		return false
	}
	s.retired = true
	return true
}

// Subscribe registers fn to be called synchronously after every toggle.
// The returned function removes it.
func (s *Store) Subscribe(fn func(FavoriteChange)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Flush writes the current set if an earlier write failed.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	version := s.version
	snapshot := append([]string(nil), s.ids...)
	s.mu.Unlock()

	return s.save(ctx, version, snapshot)
}

// save writes snapshot unless a newer version has already been written.
func (s *Store) save(ctx context.Context, version uint64, snapshot []string) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if version <= s.savedVersion {
		return nil
	}

	data, err := domain.FavoritesRecord{FavoriteIDs: snapshot}.Encode()
	if err == nil {
		err = s.kv.Set(ctx, s.key, data)
	}

	s.mu.Lock()
	if err != nil {
		s.dirty = true
	} else {
		s.savedVersion = version
		if version == s.version {
			s.dirty = false
		}
	}
	s.mu.Unlock()

	if err != nil {
		if s.onPersistFailure != nil {
			s.onPersistFailure(err)
		}
		return fmt.Errorf("persist %s: %w", s.key, err)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
