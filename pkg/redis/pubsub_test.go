package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artwall/storefront/pkg/logger"
)

func TestPubSub_PublishJSON(t *testing.T) {
	client, _ := setupTestClient(t)

	ps := NewPubSub(client, logger.Nop())
	t.Cleanup(func() { _ = ps.Close() })

	channel := ChannelKey("test")
	got := make(chan string, 1)
	require.NoError(t, ps.Subscribe(channel))
	ps.OnMessage(channel, func(_ string, payload string) error {
		got <- payload
		return nil
	})
	require.NoError(t, ps.Start())

	require.NoError(t, ps.PublishJSON(context.Background(), channel, map[string]string{"profile": "alice"}))

	select {
	case payload := <-got:
		assert.JSONEq(t, `{"profile":"alice"}`, payload)
	case <-time.After(3 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestPubSub_DispatchesPerChannel(t *testing.T) {
	client, mr := setupTestClient(t)

	ps := NewPubSub(client, logger.Nop())
	t.Cleanup(func() { _ = ps.Close() })

	a, b := ChannelKey("a"), ChannelKey("b")
	require.NoError(t, ps.Subscribe(a, b))

	gotA := make(chan string, 2)
	gotB := make(chan string, 2)
	ps.OnMessage(a, func(_ string, payload string) error {
		gotA <- payload
		return errors.New("handler failure is logged, not fatal")
	})
	ps.OnMessage(b, func(_ string, payload string) error {
		gotB <- payload
		return nil
	})
	require.NoError(t, ps.Start())
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(b)[b] == 1
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, mr.Publish(a, "first"))
	assert.Equal(t, 1, mr.Publish(b, "second"))
	assert.Equal(t, 1, mr.Publish(a, "third"))

	for _, want := range []string{"first", "third"} {
		select {
		case payload := <-gotA:
			assert.Equal(t, want, payload)
		case <-time.After(3 * time.Second):
			t.Fatalf("%q not delivered", want)
		}
	}
	select {
	case payload := <-gotB:
		assert.Equal(t, "second", payload)
	case <-time.After(3 * time.Second):
		t.Fatal("second not delivered")
	}
}

func TestPubSub_StartWithoutSubscription(t *testing.T) {
	ps := NewPubSub(&Client{}, logger.Nop())
	assert.Error(t, ps.Start())
	assert.NoError(t, ps.Close())
}
