package events

import "sync"

// subscriberBuffer bounds how far a stream may lag before events are dropped.
const subscriberBuffer = 10

// Hub routes events to the SSE streams open for each workspace. Delivery is
// best effort: a full subscriber buffer drops the event for that stream only.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan string]struct{} // workspace id -> streams
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan string]struct{})}
}

// Subscribe opens a stream for workspaceID. Callers must Unsubscribe it.
func (h *Hub) Subscribe(workspaceID string) chan string {
	ch := make(chan string, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[workspaceID]
	if !ok {
		set = make(map[chan string]struct{})
		h.subs[workspaceID] = set
	}
	set[ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ws, set := range h.subs {
		if _, ok := set[ch]; !ok {
			continue
		}
		delete(set, ch)
		if len(set) == 0 {
			delete(h.subs, ws)
		}
		close(ch)
		return
	}
}

// Subscribers reports how many streams are open for workspaceID.
func (h *Hub) Subscribers(workspaceID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[workspaceID])
}

func (h *Hub) Publish(workspaceID, evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[workspaceID] {
		select {
		case ch <- evt:
		default:
		}
	}
}
