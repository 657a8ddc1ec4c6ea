package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"dealflow-engine/internal/auth"
	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/store"
)

type ListingsHandler struct {
	Store ListingReader
}

// List returns the caller's persisted off-market companies.
// Query: ?tier=A|B|C&saved=1&limit=N
func (h ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	q := r.URL.Query()

	var opts store.ListListingsOpts
	if t := strings.ToUpper(strings.TrimSpace(q.Get("tier"))); t != "" {
		if !domain.Tier(t).Valid() {
			writeAPIError(w, r, http.StatusBadRequest, "validation_error", "tier must be A, B or C", "tier")
			return
		}
		opts.Tier = t
	}
	if s := q.Get("saved"); s != "" {
		saved, err := strconv.ParseBool(s)
		if err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "validation_error", "saved must be a boolean", "saved")
			return
		}
		opts.SavedOnly = saved
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeAPIError(w, r, http.StatusBadRequest, "validation_error", "limit must be a positive integer", "limit")
			return
		}
		opts.Limit = n
	}

	items, err := h.Store.ListListings(r.Context(), p.WorkspaceID, opts)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", "could not list companies")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"count": len(items), "companies": items})
}
