package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/metrics"
)

var ErrCacheMiss = errors.New("cache miss")

type Geocoder interface {
	Geocode(ctx context.Context, location string) (domain.Coordinate, error)
}

type RedisGeocodeCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{client: client, prefix: "dealflow:geocode", ttl: ttl}
}

// Key folds case and spacing so "austin,  tx" and "Austin, TX" share an entry.
func (c *RedisGeocodeCache) Key(location string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(location), " "))
	return c.prefix + ":" + norm
}

func (c *RedisGeocodeCache) Get(ctx context.Context, location string) (domain.Coordinate, error) {
	data, err := c.client.Get(ctx, c.Key(location)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Coordinate{}, ErrCacheMiss
		}
		return domain.Coordinate{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var pt domain.Coordinate
	if err := json.Unmarshal(data, &pt); err != nil {
		return domain.Coordinate{}, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return pt, nil
}

func (c *RedisGeocodeCache) Set(ctx context.Context, location string, pt domain.Coordinate) error {
	data, err := json.Marshal(pt)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(location), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// CachedGeocoder answers from redis when it can and falls through to the
// live geocoder otherwise. Redis trouble never fails a search.
type CachedGeocoder struct {
	next  Geocoder
	cache *RedisGeocodeCache
	log   zerolog.Logger
}

func NewCachedGeocoder(next Geocoder, cache *RedisGeocodeCache, log zerolog.Logger) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache, log: log.With().Str("component", "geocode_cache").Logger()}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, location string) (domain.Coordinate, error) {
	pt, err := g.cache.Get(ctx, location)
	switch {
	case err == nil:
		metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return pt, nil
	case errors.Is(err, ErrCacheMiss):
		metrics.GeocodeCache.WithLabelValues("miss").Inc()
	default:
		metrics.GeocodeCache.WithLabelValues("error").Inc()
		g.log.Warn().Err(err).Str("location", location).Msg("geocode cache read failed")
	}

	pt, err = g.next.Geocode(ctx, location)
	if err != nil {
		return pt, err
	}
	if err := g.cache.Set(ctx, location, pt); err != nil {
		g.log.Warn().Err(err).Str("location", location).Msg("geocode cache write failed")
	}
	return pt, nil
}
