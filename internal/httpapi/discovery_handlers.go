package httpapi

import (
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog"

	"dealflow-engine/internal/auth"
	"dealflow-engine/internal/config"
	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/events"
)

type DiscoveryHandler struct {
	CfgVal      *atomic.Value
	NewSearcher func(cfg config.Config) (Searcher, error)
	Hub         *events.Hub
	Log         zerolog.Logger
}

type searchResponse struct {
	Success   bool             `json:"success"`
	Count     int              `json:"count"`
	Companies []domain.Listing `json:"companies"`
	Debug     domain.Funnel    `json:"debug"`
}

func (h DiscoveryHandler) Search(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	reqID := RequestIDFrom(r.Context())

	var req domain.SearchRequest
	if err := decodeStrict(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeSearchError(w, r, err)
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	s, err := h.NewSearcher(cfg)
	if err != nil {
		h.Log.Error().Err(err).Str("request_id", reqID).Msg("search unavailable")
		writeSearchError(w, r, err)
		return
	}

	res, err := s.Run(r.Context(), p.WorkspaceID, req)
	if err != nil {
		h.Log.Error().Err(err).
			Str("request_id", reqID).
			Str("workspace_id", p.WorkspaceID).
			Msg("search failed")
		h.publish(p.WorkspaceID, events.MakeEvent(reqID, events.TypeSearchFailed, 1, map[string]any{
			"location": req.Location,
		}))
		writeSearchError(w, r, err)
		return
	}

	h.publish(p.WorkspaceID, events.MakeEvent(reqID, events.TypeSearchCompleted, 1, map[string]any{
		"location": req.Location,
		"count":    len(res.Listings),
		"debug":    res.Funnel,
	}))
	WriteJSON(w, http.StatusOK, searchResponse{
		Success:   true,
		Count:     len(res.Listings),
		Companies: res.Listings,
		Debug:     res.Funnel,
	})
}

func (h DiscoveryHandler) publish(workspaceID, evt string) {
	if h.Hub != nil {
		h.Hub.Publish(workspaceID, evt)
	}
}
