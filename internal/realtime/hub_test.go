package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, chan struct{}) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	return hub, cancel, stopped
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestHub_DeliversOnlyToTargetUser(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, stopped := startHub(t)
	alice, bob := uuid.New(), uuid.New()

	a1, a2, b1 := NewClient(alice), NewClient(alice), NewClient(bob)
	require.True(t, hub.RegisterClient(a1))
	require.True(t, hub.RegisterClient(a2))
	require.True(t, hub.RegisterClient(b1))
	require.Eventually(t, func() bool {
		return hub.Connected(alice) == 2 && hub.Connected(bob) == 1
	}, time.Second, 5*time.Millisecond)

	n := NewNotifier(hub, nil, zap.NewNop())
	n.Notify(context.Background(), alice, "new_message", map[string]string{"text": "hi"})

	assert.Equal(t, "new_message", receive(t, a1).Type)
	assert.Equal(t, "new_message", receive(t, a2).Type)
	assert.Len(t, b1.Send, 0)

	hub.SendToConversation(alice, bob, Event{Type: "ping"})
	assert.Equal(t, "ping", receive(t, b1).Type)

	cancel()
	<-stopped

	_, open := <-b1.Send
	assert.False(t, open)
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, stopped := startHub(t)
	c := NewClient(uuid.New())
	require.True(t, hub.RegisterClient(c))

	hub.UnregisterClient(c)
	_, open := <-c.Send
	assert.False(t, open)
	assert.Zero(t, hub.Connected(c.UserID))

	cancel()
	<-stopped
}

func TestHub_RegisterAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, stopped := startHub(t)
	cancel()
	<-stopped

	assert.False(t, hub.RegisterClient(NewClient(uuid.New())))
	hub.UnregisterClient(NewClient(uuid.New()))
}
