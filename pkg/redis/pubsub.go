package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/artwall/storefront/pkg/logger"
)

// MessageHandler handles one pub/sub message.
type MessageHandler func(channel string, payload string) error

// PubSub dispatches Redis Pub/Sub messages to per-channel handlers.
type PubSub struct {
	client *Client
	log    logger.Logger

	mu       sync.RWMutex
	pubsub   *redis.PubSub
	handlers map[string][]MessageHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPubSub creates a new Pub/Sub instance.
func NewPubSub(client *Client, log logger.Logger) *PubSub {
	ctx, cancel := context.WithCancel(context.Background())
	return &PubSub{
		client:   client,
		log:      log.WithFields(logger.String("component", "pubsub")),
		handlers: make(map[string][]MessageHandler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Subscribe subscribes to one or more channels.
func (ps *PubSub) Subscribe(channels ...string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.pubsub == nil {
		ps.pubsub = ps.client.universal.Subscribe(ps.ctx, channels...)
		// Wait for the subscription so messages published right after
		// Subscribe returns are not missed.
		if _, err := ps.pubsub.Receive(ps.ctx); err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
		return nil
	}
	if err := ps.pubsub.Subscribe(ps.ctx, channels...); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

// OnMessage registers a handler for messages on channel.
func (ps *PubSub) OnMessage(channel string, handler MessageHandler) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.handlers[channel] = append(ps.handlers[channel], handler)
}

// Start starts receiving messages in the background.
func (ps *PubSub) Start() error {
	ps.mu.RLock()
	subscribed := ps.pubsub != nil
	ps.mu.RUnlock()
	if !subscribed {
		return fmt.Errorf("not subscribed to any channels")
	}

	ps.wg.Add(1)
	go ps.receive()
	return nil
}

func (ps *PubSub) receive() {
	defer ps.wg.Done()

	for {
		msg, err := ps.pubsub.ReceiveMessage(ps.ctx)
		if err != nil {
			if ps.ctx.Err() != nil {
				return
			}
			ps.log.Warn("pubsub receive failed", logger.Error(err))
			continue
		}
		ps.dispatch(msg.Channel, msg.Payload)
	}
}

func (ps *PubSub) dispatch(channel, payload string) {
	ps.mu.RLock()
	handlers := ps.handlers[channel]
	ps.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(channel, payload); err != nil {
			ps.log.Warn("pubsub handler failed", logger.String("channel", channel), logger.Error(err))
		}
	}
}

// Publish publishes a message to a channel.
func (ps *PubSub) Publish(ctx context.Context, channel, message string) error {
	if err := ps.client.universal.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// PublishJSON publishes v encoded as JSON.
func (ps *PubSub) PublishJSON(ctx context.Context, channel string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return ps.Publish(ctx, channel, string(data))
}

// Close stops receiving and closes the subscription.
func (ps *PubSub) Close() error {
	ps.cancel()

	ps.mu.Lock()
	var err error
	if ps.pubsub != nil {
		err = ps.pubsub.Close()
	}
	ps.mu.Unlock()

	ps.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close pubsub: %w", err)
	}
	return nil
}
