package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/artwall/storefront/pkg/logger"
	"github.com/artwall/storefront/pkg/redis"
)

// ChangeBus carries change notices between instances. *redis.PubSub
// satisfies it.
type ChangeBus interface {
	Subscribe(channels ...string) error
	OnMessage(channel string, handler redis.MessageHandler)
	Start() error
	PublishJSON(ctx context.Context, channel string, v interface{}) error
}

type changeNotice struct {
	Instance string `json:"instance"`
	Profile  string `json:"profile"`
}

// FavoriteSync keeps the favorites cached by several instances over one
// shared KVStore coherent: every write is announced on the bus, and a notice
// from another instance evicts the local copy of that profile.
type FavoriteSync struct {
	bus      ChangeBus
	svc      *FavoriteService
	channel  string
	instance string
	log      logger.Logger
}

// NewFavoriteSync creates a sync for svc. Call Start to attach it.
func NewFavoriteSync(bus ChangeBus, svc *FavoriteService, log logger.Logger) *FavoriteSync {
	return &FavoriteSync{
		bus:      bus,
		svc:      svc,
		channel:  redis.ChannelKey("favorites"),
		instance: uuid.NewString(),
		log:      log.WithFields(logger.String("component", "favorite_sync")),
	}
}

// Start subscribes to the bus and begins announcing local writes.
func (f *FavoriteSync) Start() error {
	if err := f.bus.Subscribe(f.channel); err != nil {
		return err
	}
	f.bus.OnMessage(f.channel, f.handle)
	if err := f.bus.Start(); err != nil {
		return err
	}
	f.svc.setPublisher(f)
	f.log.Info("favorites sync started", logger.String("instance", f.instance))
	return nil
}

// PublishChange announces that profileID's record was written.
func (f *FavoriteSync) PublishChange(ctx context.Context, profileID string) error {
	return f.bus.PublishJSON(ctx, f.channel, changeNotice{Instance: f.instance, Profile: profileID})
}

func (f *FavoriteSync) handle(_ string, payload string) error {
	var n changeNotice
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return fmt.Errorf("malformed change notice: %w", err)
	}
	if n.Instance == f.instance {
		return nil
	}
	if f.svc.Evict(n.Profile) {
		f.log.Debug("favorites evicted after remote change", logger.String("profile_id", n.Profile))
	}
	return nil
}
