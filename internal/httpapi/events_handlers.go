package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"dealflow-engine/internal/auth"
	"dealflow-engine/internal/events"
)

type EventsHandler struct {
	Hub *events.Hub
	// Heartbeat keeps idle proxies from closing the stream. Zero disables it.
	Heartbeat time.Duration
}

// ServeSSE streams the caller's workspace events.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe(p.WorkspaceID)
	defer h.Hub.Unsubscribe(ch)

	reqID := RequestIDFrom(r.Context())
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", events.MakeEvent(reqID, events.TypePing, 1, nil))
	flusher.Flush()

	var tick <-chan time.Time
	if h.Heartbeat > 0 {
		t := time.NewTicker(h.Heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case msg := <-ch:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
