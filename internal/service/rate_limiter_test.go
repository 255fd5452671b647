package service

import (
	"testing"
	"time"
)

type fakeLimiterClock struct {
	now time.Time
}

func (c *fakeLimiterClock) Now() time.Time {
	return c.now
}

func TestMemoryRateLimiterAllow(t *testing.T) {
	clock := &fakeLimiterClock{now: testNow}
	l := newMemoryRateLimiter(time.Hour, 3, clock.Now)

	for i := 0; i < 3; i++ {
		res := l.Allow("conv-1")
		if !res.Allowed {
			t.Fatalf("expected request %d allowed", i+1)
		}
		if res.Remaining != 2-i {
			t.Fatalf("expected %d remaining, got %d", 2-i, res.Remaining)
		}
	}
	denied := l.Allow(" CONV-1 ")
	if denied.Allowed {
		t.Fatalf("expected burst exhausted for normalized key")
	}
	if denied.RetryAfter < 19*time.Minute || denied.RetryAfter > 21*time.Minute {
		t.Fatalf("expected retry after about one token interval, got %v", denied.RetryAfter)
	}
	if !l.Allow("conv-2").Allowed {
		t.Fatalf("expected independent buckets per key")
	}
	if l.Allow("   ").Allowed {
		t.Fatalf("expected empty key rejected")
	}

	clock.now = clock.now.Add(21 * time.Minute)
	if !l.Allow("conv-1").Allowed {
		t.Fatalf("expected a token back after the interval")
	}
}

func TestMemoryRateLimiterDefaults(t *testing.T) {
	l := NewMemoryRateLimiter(0, 0)
	if !l.Allow("k").Allowed {
		t.Fatalf("expected first request allowed")
	}
	if l.Allow("k").Allowed {
		t.Fatalf("expected max defaulted to 1")
	}
}

func TestMemoryRateLimiterEvictsIdleKeys(t *testing.T) {
	clock := &fakeLimiterClock{now: testNow}
	l := newMemoryRateLimiter(time.Minute, 5, clock.Now)

	for _, key := range []string{"ip|conv-a", "ip|conv-b", "ip|conv-c"} {
		l.Allow(key)
	}
	if n := l.size(); n != 3 {
		t.Fatalf("expected 3 entries, got %d", n)
	}

	clock.now = clock.now.Add(30 * time.Second)
	l.Allow("ip|conv-a")
	if n := l.size(); n != 3 {
		t.Fatalf("nothing is idle yet, got %d entries", n)
	}

	clock.now = clock.now.Add(time.Minute)
	l.Allow("ip|conv-d")
	if n := l.size(); n != 1 {
		t.Fatalf("expected idle entries evicted, got %d", n)
	}
}
