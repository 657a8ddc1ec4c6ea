package httpapi

import (
	"context"
	"net/http"
	"time"
)

type HealthHandler struct {
	Ping func(ctx context.Context) error
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "store": err.Error()})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}
