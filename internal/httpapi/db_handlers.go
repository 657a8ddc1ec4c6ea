package httpapi

import (
	"context"
	"net/http"
)

type DBHandler struct {
	Checkpoint func(ctx context.Context) error
}

// CheckpointNow flushes the sqlite WAL. Mounted behind localOnly.
func (h DBHandler) CheckpointNow(w http.ResponseWriter, r *http.Request) {
	if err := h.Checkpoint(r.Context()); err != nil {
		WriteError(w, r, http.StatusConflict, "checkpoint_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
