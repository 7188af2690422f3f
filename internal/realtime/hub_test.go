package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClient(id, userID string, buf int) *Client {
	return &Client{ID: id, UserID: userID, Events: make(chan Event, buf)}
}

func TestHub_DeliverBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a := newClient("a", "u1", 4)
	b := newClient("b", "u2", 4)
	hub.Register(a)
	hub.Register(b)

	hub.Deliver(Change{Table: TablePendingItems, Action: "insert", RecordID: "p1"})

	for _, c := range []*Client{a, b} {
		require.Len(t, c.Events, 1)
		ev := <-c.Events
		assert.Equal(t, TablePendingItems, ev.EventType)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(ev.Data), &payload))
		assert.Equal(t, "p1", payload["record_id"])
		assert.NotContains(t, payload, "users")
	}
}

func TestHub_DeliverTargeted(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a := newClient("a", "u1", 4)
	b := newClient("b", "u2", 4)
	hub.Register(a)
	hub.Register(b)

	hub.Deliver(Change{Table: TableDailyRecords, Action: "update", Users: []string{"u2"}})

	assert.Len(t, a.Events, 0)
	assert.Len(t, b.Events, 1)
}

func TestHub_FullBufferDropsEvent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newClient("a", "u1", 1)
	hub.Register(c)

	hub.Broadcast(Event{EventType: "x", Data: "1"})
	hub.Broadcast(Event{EventType: "x", Data: "2"})

	require.Len(t, c.Events, 1)
	assert.Equal(t, "1", (<-c.Events).Data)
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newClient("a", "u1", 1)
	hub.Register(c)
	require.Equal(t, 1, hub.ClientCount())

	hub.Unregister("a")
	_, ok := <-c.Events
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())

	// 重复注销不应 panic
	hub.Unregister("a")
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a, b := newClient("a", "u1", 1), newClient("b", "u2", 1)
	hub.Register(a)
	hub.Register(b)

	hub.CloseAll()

	_, okA := <-a.Events
	_, okB := <-b.Events
	assert.False(t, okA)
	assert.False(t, okB)
	assert.Equal(t, 0, hub.ClientCount())
	hub.Unregister("a")
}

func TestHubPublisher(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newClient("a", "u1", 1)
	hub.Register(c)

	NewHubPublisher(hub).Publish(context.Background(), Change{Table: TableChatMessages, Action: "insert"})
	assert.Len(t, c.Events, 1)
}
