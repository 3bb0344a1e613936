package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"notely-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func attach(hub *Hub, userID uuid.UUID, device string) *Client {
	c := &Client{Hub: hub, UserID: userID, DeviceID: device, Send: make(chan []byte, 4)}
	hub.register <- c
	return c
}

func receive(t *testing.T, c *Client) SyncRequired {
	t.Helper()
	select {
	case raw := <-c.Send:
		var msg SyncRequired
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return SyncRequired{}
	}
}

func TestNotifyReachesEveryDeviceOfUser(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	phone := attach(hub, user, "phone")
	laptop := attach(hub, user, "laptop")
	stranger := attach(hub, uuid.New(), "other")

	require.Eventually(t, func() bool { return hub.ConnectedDevices(user) == 2 }, time.Second, 5*time.Millisecond)

	noteID := uuid.New()
	hub.NotifySyncRequired(user, "phone", []uuid.UUID{noteID})

	for _, c := range []*Client{phone, laptop} {
		msg := receive(t, c)
		assert.Equal(t, "sync_required", msg.Type)
		assert.Equal(t, "phone", msg.OriginDeviceId)
		assert.Equal(t, []uuid.UUID{noteID}, msg.NoteIds)
	}
	assert.Empty(t, stranger.Send)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()
	c := attach(hub, user, "phone")
	require.Eventually(t, func() bool { return hub.ConnectedDevices(user) == 1 }, time.Second, 5*time.Millisecond)

	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.ConnectedDevices(user) == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)
}

func TestStoppedHubDoesNotBlockSenders(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	user := uuid.New()
	c := &Client{Hub: hub, UserID: user, DeviceID: "phone", Send: make(chan []byte)}
	require.True(t, hub.join(c))
	require.Eventually(t, func() bool { return hub.ConnectedDevices(user) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped

	// The unbuffered Send is full, so delivery schedules a removal.
	hub.NotifySyncRequired(user, "laptop", nil)

	done := make(chan struct{})
	go func() {
		hub.leave(c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("leave blocked after the hub stopped")
	}
	assert.False(t, hub.join(&Client{Hub: hub, UserID: user, Send: make(chan []byte, 1)}))
}

func TestRedisSubscriberExitsWithContext(t *testing.T) {
	// Nothing listens here; the subscriber must still return once ctx ends.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	hub := NewHub(rdb, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.subscribeToRedis(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("redis subscriber kept running after cancel")
	}
}
