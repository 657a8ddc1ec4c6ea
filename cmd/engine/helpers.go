package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dealflow-engine/internal/cache"
	"dealflow-engine/internal/config"
	"dealflow-engine/internal/discovery"
	"dealflow-engine/internal/fetch"
	"dealflow-engine/internal/httpapi"
	"dealflow-engine/internal/places"
	"dealflow-engine/internal/review"
	"dealflow-engine/internal/secrets"
	"dealflow-engine/internal/store"
)

func openStore(cfg config.Config, dataDir string) (*store.DB, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		path := cfg.Store.DSN
		if path == "" {
			path = filepath.Join(dataDir, "dealflow.db")
		}
		return store.Open(path)
	case "postgres":
		return store.OpenPostgres(cfg.Store.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// connectGeocodeCache returns nil when no redis is configured or reachable;
// searches then geocode live every time.
func connectGeocodeCache(ctx context.Context, cfg config.Config, log zerolog.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.Cache.RedisAddr)
	if addr == "" {
		return nil
	}
	client, err := cache.Connect(ctx, addr)
	if err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("geocode cache disabled")
		return nil
	}
	return client
}

// searcherFactory wires one pipeline per search from the live config.
// Provider keys are looked up on every call so a missing key surfaces as a
// not-configured error before any provider is contacted.
func searcherFactory(db *store.DB, rdb *redis.Client, limiter *fetch.HostLimiter, log zerolog.Logger) func(config.Config) (httpapi.Searcher, error) {
	return func(cfg config.Config) (httpapi.Searcher, error) {
		placesKey, err := secrets.Get(secrets.PlacesAPIKey)
		if err != nil {
			return nil, err
		}
		reviewKey, err := secrets.Get(secrets.ReviewAPIKey)
		if err != nil {
			return nil, err
		}

		p := cfg.Providers
		timeout := time.Duration(p.TimeoutSeconds) * time.Second
		pc := places.New(places.Options{
			BaseURL:     p.PlacesBaseURL,
			APIKey:      placesKey,
			Timeout:     timeout,
			Limiter:     limiter,
			SettleDelay: time.Duration(cfg.Discovery.PageSettleMillis) * time.Millisecond,
			MaxPages:    cfg.Discovery.MaxPages,
			Logger:      log,
		})

		var geo discovery.Geocoder = pc
		if rdb != nil {
			ttl := time.Duration(cfg.Cache.GeocodeTTLHours) * time.Hour
			geo = cache.NewCachedGeocoder(pc, cache.NewRedisGeocodeCache(rdb, ttl), log)
		}

		return discovery.New(discovery.Deps{
			Geocoder: geo,
			Searcher: pc,
			Details:  pc,
			Pages:    fetch.NewHomepageFetcher(timeout, limiter, p.UserAgent, cfg.Discovery.HomepageMaxChars),
			Reviewer: review.New(review.Options{
				BaseURL:     p.ReviewBaseURL,
				APIKey:      reviewKey,
				Model:       p.ReviewModel,
				Temperature: cfg.Discovery.ReviewTemperature,
				Limiter:     limiter,
			}),
			Store:  db,
			Limits: cfg.Discovery,
			Logger: log,
		}), nil
	}
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdownHandler(token *string, srv *http.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(*token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Respond immediately, then shutdown asynchronously
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}
}
