package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ingestLimitPrefix is the Redis key prefix for per-IP ingestion buckets.
	ingestLimitPrefix = "ratelimit:ingest:"
	// ingestLimitTTL bounds how long an idle bucket survives.
	ingestLimitTTL = 10 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// tokenBucketScript refills and consumes a token bucket atomically.
// Time is passed in milliseconds so sub-second refill works at high rates.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- bucket capacity
	local now_ms = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])       -- seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_ms')
	local tokens = tonumber(data[1]) or burst
	local last_ms = tonumber(data[2]) or now_ms

	local elapsed = math.max(0, now_ms - last_ms) / 1000
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_ms = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_ms = math.ceil((1 - tokens) / rate * 1000)
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_ms', now_ms)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_ms, math.floor(tokens)}
`)

// CheckIPRateLimit consumes one token from the ingestion bucket of ip.
// The IP is hashed before it is used as a key.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	if ratePerSecond <= 0 || burst <= 0 {
		return nil, fmt.Errorf("invalid rate limit: rps=%d burst=%d", ratePerSecond, burst)
	}

	key := ingestKey(ip)

	result, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		ratePerSecond, burst, time.Now().UnixMilli(), int(ingestLimitTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("run token bucket: %w", err)
	}
	if len(result) != 3 {
		return nil, fmt.Errorf("unexpected token bucket reply: %v", result)
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		RetryAfter: time.Duration(result[1]) * time.Millisecond,
		Remaining:  result[2],
	}, nil
}

// ingestKey returns the bucket key for ip. Raw addresses are not stored.
func ingestKey(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return ingestLimitPrefix + hex.EncodeToString(sum[:8])
}
