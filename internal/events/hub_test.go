package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubScopesByWorkspace(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("ws-a")
	b := h.Subscribe("ws-b")
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Publish("ws-a", "hello")

	select {
	case got := <-a:
		assert.Equal(t, "hello", got)
	default:
		t.Fatal("ws-a subscriber got nothing")
	}
	select {
	case got := <-b:
		t.Fatalf("ws-b subscriber got %q", got)
	default:
	}
}

func TestHubDropsForSlowReaders(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe("ws")
	defer h.Unsubscribe(ch)

	for i := 0; i < 25; i++ {
		h.Publish("ws", "x")
	}
	assert.Len(t, ch, cap(ch))
}

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("req-1", TypeSearchCompleted, 1, map[string]int{"kept": 3})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, TypeSearchCompleted, e.Type)
	assert.Equal(t, "req-1", e.RequestID)
	assert.JSONEq(t, `{"kept":3}`, string(e.Data))
}

func TestHubUnsubscribeClosesAndForgets(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("ws")
	b := h.Subscribe("ws")
	assert.Equal(t, 2, h.Subscribers("ws"))

	h.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, h.Subscribers("ws"))

	h.Unsubscribe(b)
	assert.Equal(t, 0, h.Subscribers("ws"))
	h.Publish("ws", "nobody listening")
}
