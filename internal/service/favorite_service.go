package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/artwall/storefront/internal/domain"
	"github.com/artwall/storefront/internal/repository"
	"github.com/artwall/storefront/pkg/logger"
	"github.com/artwall/storefront/pkg/telemetry"
)

var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrFavoritesUnavailable means a profile's record could not be read. Nothing
// is cached, so the next request tries again.
var ErrFavoritesUnavailable = errors.New("favorites storage unavailable")

// toggleAttempts bounds retries when a store is evicted mid-toggle.
const toggleAttempts = 3

// ToggleResult is the outcome of a toggle.
type ToggleResult struct {
	ArtworkID string `json:"artworkId"`
	Liked     bool   `json:"liked"`
	Count     int    `json:"count"`
}

// FavoriteService hands out one Store per browser profile, loading each
// lazily from the KVStore on first use.
type FavoriteService struct {
	kv         repository.KVStore
	storageKey string
	backend    string
	log        logger.Logger
	metrics    *telemetry.Metrics

	mu        sync.Mutex
	stores    map[string]*Store
	publisher changePublisher
}

// changePublisher announces that a profile's record was written.
type changePublisher interface {
	PublishChange(ctx context.Context, profileID string) error
}

// NewFavoriteService creates the registry. storageKey names the persisted
// record inside each profile's namespace; backend labels metrics.
func NewFavoriteService(kv repository.KVStore, storageKey, backend string, log logger.Logger, metrics *telemetry.Metrics) *FavoriteService {
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &FavoriteService{
		kv:         kv,
		storageKey: storageKey,
		backend:    backend,
		log:        log,
		metrics:    metrics,
		stores:     make(map[string]*Store),
	}
}

// StorageKey returns the KVStore key for a profile's record.
func (s *FavoriteService) StorageKey(profileID string) string {
	return "favorites:" + profileID + ":" + s.storageKey
}

// Store returns the profile's store, loading it on first use.
func (s *FavoriteService) Store(ctx context.Context, profileID string) (*Store, error) {
	if !profileIDPattern.MatchString(profileID) {
		return nil, domain.ErrInvalidProfileID
	}

	s.mu.Lock()
	st, ok := s.stores[profileID]
	s.mu.Unlock()
	if ok {
		return st, nil
	}

	// Load outside the lock so a slow backend does not stall other profiles.
	loaded, err := NewStore(ctx, s.StorageKey(profileID), s.kv, s.log.WithFields(logger.String("profile_id", profileID)))
	if err != nil {
		s.log.WithContext(ctx).Warn("favorites unavailable",
			logger.String("profile_id", profileID), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFavoritesUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[profileID]; ok {
		return st, nil
	}
	loaded.onPersistFailure = func(error) {
		s.metrics.PersistFailure(context.Background(), s.backend)
	}
	loaded.Subscribe(func(c FavoriteChange) {
		s.metrics.Toggle(context.Background(), c.Liked)
	})
	s.stores[profileID] = loaded
	return loaded, nil
}

// Toggle flips id in the profile's favorites.
func (s *FavoriteService) Toggle(ctx context.Context, profileID, artworkID string) (*ToggleResult, error) {
	var (
		st    *Store
		liked bool
		err   error
	)
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		st, err = s.Store(ctx, profileID)
		if err != nil {
			return nil, err
		}
		liked, err = st.Toggle(ctx, artworkID)
		if !errors.Is(err, errStoreRetired) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	if !st.Dirty() {
		s.announce(ctx, profileID)
	}
	return &ToggleResult{ArtworkID: artworkID, Liked: liked, Count: st.Len()}, nil
}

// IsFavorite reports whether artworkID is in the profile's favorites.
func (s *FavoriteService) IsFavorite(ctx context.Context, profileID, artworkID string) (bool, error) {
	if artworkID == "" {
		return false, domain.ErrInvalidArtworkID
	}
	st, err := s.Store(ctx, profileID)
	if err != nil {
		return false, err
	}
	return st.IsFavorite(artworkID), nil
}

// List returns the profile's favorite IDs in the order they were added.
func (s *FavoriteService) List(ctx context.Context, profileID string) ([]string, error) {
	st, err := s.Store(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return st.IDs(), nil
}

// FlushDirty retries the write of every store whose last write failed. It
// returns how many stores were written and the joined errors of those that
// still failed.
func (s *FavoriteService) FlushDirty(ctx context.Context) (int, error) {
	s.mu.Lock()
	dirty := make(map[string]*Store)
	for profileID, st := range s.stores {
		if st.Dirty() {
			dirty[profileID] = st
		}
	}
	s.mu.Unlock()

	var (
		flushed int
		errs    []error
	)
	for profileID, st := range dirty {
		if err := ctx.Err(); err != nil {
			return flushed, err
		}
		if err := st.Flush(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		flushed++
		s.announce(ctx, profileID)
	}
	return flushed, errors.Join(errs...)
}

// Evict drops the cached store of profileID so the next request reloads it
// from the KVStore. A store with a pending or failed write is kept.
func (s *FavoriteService) Evict(profileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[profileID]
	if !ok || !st.retire() {
		return false
	}
	delete(s.stores, profileID)
	return true
}

func (s *FavoriteService) setPublisher(p changePublisher) {
	s.mu.Lock()
	s.publisher = p
	s.mu.Unlock()
}

func (s *FavoriteService) announce(ctx context.Context, profileID string) {
	s.mu.Lock()
	p := s.publisher
	s.mu.Unlock()
	if p == nil {
		return
	}
	if err := p.PublishChange(context.WithoutCancel(ctx), profileID); err != nil {
		s.log.WithContext(ctx).Warn("favorites change not broadcast",
			logger.String("profile_id", profileID), logger.Error(err))
	}
}

// Profiles returns the number of loaded profiles.
func (s *FavoriteService) Profiles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}
