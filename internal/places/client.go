package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/fetch"
	"dealflow-engine/internal/metrics"
)

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Clock is the wait step between result pages. Tests swap in a fake.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func RealClock() Clock { return realClock{} }

type Options struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	Limiter     *fetch.HostLimiter
	Clock       Clock
	SettleDelay time.Duration
	MaxPages    int
	Logger      zerolog.Logger
}

// Client talks to the Google Maps geocoding and places web services.
type Client struct {
	base     string
	key      string
	hc       *http.Client
	limiter  *fetch.HostLimiter
	clock    Clock
	settle   time.Duration
	maxPages int
	log      zerolog.Logger
}

func New(o Options) *Client {
	if o.Clock == nil {
		o.Clock = RealClock()
	}
	if o.MaxPages <= 0 {
		o.MaxPages = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	return &Client{
		base:     strings.TrimRight(o.BaseURL, "/"),
		key:      o.APIKey,
		hc:       &http.Client{Timeout: o.Timeout},
		limiter:  o.Limiter,
		clock:    o.Clock,
		settle:   o.SettleDelay,
		maxPages: o.MaxPages,
		log:      o.Logger.With().Str("component", "places").Logger(),
	}
}

type apiStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

type geometry struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

func (g *geometry) coordinate() *domain.Coordinate {
	if g == nil {
		return nil
	}
	return &domain.Coordinate{Lat: g.Location.Lat, Lng: g.Location.Lng}
}

// getJSON performs one rate-limited GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, provider, path string, q url.Values, out any) error {
	q.Set("key", c.key)
	u := c.base + path + "?" + q.Encode()

	if err := c.limiter.WaitURL(ctx, u); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s request: %w", provider, redactKey(err))
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(provider, "error").Inc()
		return fmt.Errorf("%s get: %w", provider, redactKey(err))
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		metrics.ProviderRequests.WithLabelValues(provider, "http_"+fmt.Sprint(res.StatusCode)).Inc()
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%s status %d: %s", provider, res.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		metrics.ProviderRequests.WithLabelValues(provider, "decode_error").Inc()
		return fmt.Errorf("%s decode: %w", provider, err)
	}
	metrics.ProviderRequests.WithLabelValues(provider, "ok").Inc()
	return nil
}

// redactKey strips the API key from the URL a transport error carries, so
// provider failures can be logged as-is.
func redactKey(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	if parsed, perr := url.Parse(ue.URL); perr == nil {
		q := parsed.Query()
		if q.Has("key") {
			q.Set("key", "REDACTED")
			parsed.RawQuery = q.Encode()
		}
		ue.URL = parsed.String()
	} else {
		ue.URL = "(unparseable url)"
	}
	return err
}
