package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestIngestKey(t *testing.T) {
	t.Parallel()

	a := ingestKey("192.0.2.10")
	if a != ingestKey("192.0.2.10") {
		t.Error("key must be stable for the same address")
	}
	if !strings.HasPrefix(a, ingestLimitPrefix) {
		t.Errorf("key %q missing prefix %q", a, ingestLimitPrefix)
	}
	if strings.Contains(a, "192.0.2.10") {
		t.Errorf("key %q leaks the raw address", a)
	}
	if got := len(strings.TrimPrefix(a, ingestLimitPrefix)); got != 16 {
		t.Errorf("hash part length = %d, want 16", got)
	}

	for _, other := range []string{"192.0.2.11", "::1", ""} {
		if ingestKey(other) == a {
			t.Errorf("ingestKey(%q) collides with 192.0.2.10", other)
		}
	}
}

func TestParseOptions(t *testing.T) {
	t.Parallel()

	opt, err := parseOptions("redis://:secret@cache:6380/3")
	if err != nil {
		t.Fatalf("parseOptions() error = %v", err)
	}
	if opt.Addr != "cache:6380" || opt.DB != 3 || opt.Password != "secret" {
		t.Errorf("unexpected options addr=%s db=%d", opt.Addr, opt.DB)
	}
	if opt.PoolSize != poolSize || opt.ReadTimeout != opTimeout {
		t.Errorf("pool settings not applied: size=%d read=%s", opt.PoolSize, opt.ReadTimeout)
	}

	if _, err := parseOptions("http://not-redis"); err == nil {
		t.Error("expected error for non-redis scheme")
	}
}

func TestCheckIPRateLimit_RejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	c := &Cache{}
	for _, tc := range [][2]int{{0, 1}, {1, 0}, {-1, -1}} {
		if _, err := c.CheckIPRateLimit(context.Background(), "192.0.2.1", tc[0], tc[1]); err == nil {
			t.Errorf("expected error for rps=%d burst=%d", tc[0], tc[1])
		}
	}
}

func TestNew_UnreachableRedis(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := New(ctx, "redis://127.0.0.1:1/0"); err == nil {
		t.Error("expected error connecting to a closed port")
	}
}
