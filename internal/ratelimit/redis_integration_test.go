//go:build integration

package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rosterwatch/rosterwatch/internal/cache"
	"github.com/rosterwatch/rosterwatch/internal/testutil"
)

// TestRedis_ConcurrentBudget verifies the shared bucket admits no more than
// the burst under concurrent load.
func TestRedis_ConcurrentBudget(t *testing.T) {
	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "TEST_REDIS_URL")

	c, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	defer c.Close()

	testutil.FlushRedis(t, c.Client())

	const burst = 5
	l := NewRedis(c, 1, burst)

	var allowed, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(ctx, "203.0.113.7")
			if err != nil {
				t.Errorf("Allow error: %v", err)
				return
			}
			if d.Allowed {
				atomic.AddInt64(&allowed, 1)
			} else {
				atomic.AddInt64(&rejected, 1)
			}
		}()
	}
	wg.Wait()

	// One token may refill while the goroutines run.
	if allowed < burst || allowed > burst+1 {
		t.Errorf("allowed = %d, want %d or %d", allowed, burst, burst+1)
	}
	if allowed+rejected != 20 {
		t.Errorf("total = %d, want 20", allowed+rejected)
	}
}
