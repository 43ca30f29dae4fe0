package httpapi

import (
	"sync"
	"time"
)

type visitor struct {
	tokens   float64
	refilled time.Time
	seen     time.Time
}

// RateLimiter is a token-bucket limiter keyed by client identifier. Stale
// clients are pruned lazily during Allow, so the limiter owns no goroutine
// and needs no shutdown.
type RateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	maxTokens  float64
	refillRate float64
	ttl        time.Duration
	lastPrune  time.Time
	now        func() time.Time
}

// NewRateLimiter constructs a limiter allowing burst requests up front and
// refillPerSecond sustained.
func NewRateLimiter(burst int, refillPerSecond float64, ttl time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors:   make(map[string]*visitor),
		maxTokens:  float64(burst),
		refillRate: refillPerSecond,
		ttl:        ttl,
		now:        time.Now,
	}
	rl.lastPrune = rl.now()

	return rl
}

// Allow consumes a token for the provided key if one is available.
func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.ttl > 0 && now.Sub(rl.lastPrune) >= rl.ttl {
		rl.pruneStale(now)
		rl.lastPrune = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{tokens: rl.maxTokens, refilled: now, seen: now}
		rl.visitors[key] = v
	}

	elapsed := now.Sub(v.refilled).Seconds()
	if elapsed > 0 {
		v.tokens += elapsed * rl.refillRate
		if v.tokens > rl.maxTokens {
			v.tokens = rl.maxTokens
		}
		v.refilled = now
	}

	v.seen = now

	if v.tokens < 1 {
		return false
	}

	v.tokens--
	return true
}

// pruneStale drops clients not seen within the TTL. Callers hold the mutex.
func (rl *RateLimiter) pruneStale(now time.Time) {
	for key, v := range rl.visitors {
		if now.Sub(v.seen) > rl.ttl {
			delete(rl.visitors, key)
		}
	}
}
