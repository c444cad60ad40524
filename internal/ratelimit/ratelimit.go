// Package ratelimit provides per-client token bucket limiters for the
// unauthenticated ingestion endpoint.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rosterwatch/rosterwatch/internal/cache"
)

// Decision is the outcome of a single limiter check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter decides whether a request keyed by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Redis is a Limiter backed by a shared Redis token bucket, so every
// replica enforces the same budget.
type Redis struct {
	cache *cache.Cache
	rps   int
	burst int
}

// NewRedis creates a Redis-backed limiter.
func NewRedis(c *cache.Cache, rps, burst int) *Redis {
	return &Redis{cache: c, rps: rps, burst: burst}
}

func (l *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := l.cache.CheckIPRateLimit(ctx, key, l.rps, l.burst)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: res.Allowed, RetryAfter: res.RetryAfter}, nil
}

// Local is an in-process Limiter with one bucket per key.
// Buckets idle for longer than the eviction window are dropped.
type Local struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocal creates an in-process limiter allowing rps requests per second
// per key with the given burst.
func NewLocal(rps, burst int) *Local {
	return &Local{
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (l *Local) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return Decision{Allowed: false, RetryAfter: time.Second}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true}, nil
}

// Len returns the number of live buckets.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep must be called with mu held.
func (l *Local) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idle {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
