package httpapi

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, 3, time.Minute)

	current := time.Unix(0, 0)
	rl.now = func() time.Time {
		return current
	}

	key := "1.2.3.4"

	for i := 0; i < 3; i++ {
		if !rl.Allow(key) {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
	}

	if rl.Allow(key) {
		t.Fatalf("expected fourth request to be denied")
	}

	current = current.Add(time.Second)

	if !rl.Allow(key) {
		t.Fatalf("expected request after refill to be allowed")
	}
}

func TestRateLimiterPrunesStaleClientsDuringAllow(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1, time.Minute)

	current := time.Unix(0, 0)
	rl.now = func() time.Time {
		return current
	}
	rl.lastPrune = current

	if !rl.Allow("stale") {
		t.Fatalf("expected first request to be allowed")
	}

	current = current.Add(2 * time.Minute)

	if !rl.Allow("fresh") {
		t.Fatalf("expected new client to be allowed")
	}

	rl.mu.Lock()
	_, staleKept := rl.visitors["stale"]
	_, freshKept := rl.visitors["fresh"]
	rl.mu.Unlock()

	if staleKept {
		t.Errorf("expected stale client to be pruned")
	}
	if !freshKept {
		t.Errorf("expected fresh client to be kept")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1, time.Minute)

	current := time.Unix(0, 0)
	rl.now = func() time.Time {
		return current
	}

	if !rl.Allow("a") {
		t.Fatalf("expected first client to be allowed")
	}
	if rl.Allow("a") {
		t.Fatalf("expected first client to be limited")
	}
	if !rl.Allow("b") {
		t.Fatalf("expected second client to have its own bucket")
	}
}
