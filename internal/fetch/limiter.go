package fetch

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// unknownHost buckets URLs that carry no host.
const unknownHost = "_"

// HostLimiter keeps one token bucket per host, shared by every search in the
// process: the maps API, the review API and each company site are throttled
// independently.
type HostLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		buckets: make(map[string]*rate.Limiter),
		every:   rate.Limit(reqPerSec),
		burst:   max(burst, 1),
	}
}

func (hl *HostLimiter) bucket(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	b, ok := hl.buckets[host]
	if !ok {
		b = rate.NewLimiter(hl.every, hl.burst)
		hl.buckets[host] = b
	}
	return b
}

// Wait blocks until host may be hit again or ctx ends.
func (hl *HostLimiter) Wait(ctx context.Context, host string) error {
	if hl == nil {
		return ctx.Err()
	}
	if host == "" {
		host = unknownHost
	}
	return hl.bucket(host).Wait(ctx)
}

// WaitURL is Wait keyed by raw's host. A nil limiter never waits.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return hl.Wait(ctx, "")
	}
	return hl.Wait(ctx, u.Host)
}
