package httpapi

import (
	"net/http"
	"time"

	"dealflow-engine/internal/metrics"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	authed := RequireAuth(d.Auth)

	// Off-market discovery
	dh := DiscoveryHandler{CfgVal: d.CfgVal, NewSearcher: d.NewSearcher, Hub: d.Hub, Log: d.Log}
	mux.Handle("/api/off-market/search", authed(methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.Search,
	})))
	lh := ListingsHandler{Store: d.Store}
	mux.Handle("/api/off-market/companies", authed(methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.List,
	})))

	// SSE events, scoped to the caller's workspace
	eh := EventsHandler{Hub: d.Hub, Heartbeat: 25 * time.Second}
	mux.Handle("/events", authed(methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	})))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", localOnly(methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	})))
	mux.HandleFunc("/config/path", localOnly(methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	})))
	mux.HandleFunc("/config/validate", localOnly(methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	})))

	// Secrets go to the keychain of the machine running the engine.
	sh := SecretsHandler{Set: d.SetSecret}
	mux.HandleFunc("/api/secrets/", localOnly(methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetByPath, // expects /api/secrets/{name}
	})))

	// Ops
	hh := HealthHandler{}
	dbh := DBHandler{}
	if d.Store != nil {
		hh.Ping = d.Store.Ping
		dbh.Checkpoint = d.Store.Checkpoint
	}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))
	if dbh.Checkpoint != nil {
		mux.HandleFunc("/db/checkpoint", localOnly(methodMux(map[string]http.HandlerFunc{
			http.MethodPost: dbh.CheckpointNow,
		})))
	}
	mux.Handle("/metrics", metrics.Handler())

	return mux
}

// NewHandler wraps the mux with the standard middleware stack.
func NewHandler(mux http.Handler, d Deps) http.Handler {
	return Chain(mux, RequestID, AccessLog(d.Log), Recover(d.Log), Cors)
}
