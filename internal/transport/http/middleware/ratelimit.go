package middleware

import (
	"net/http"
	"sync"
	"time"

	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/shared"
)

type window struct {
	count int
	start time.Time
}

// RateLimiter is a fixed-window per-IP limiter. State is in-process; behind
// multiple replicas each instance enforces its own window.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.windows[key] = &window{count: 1, start: now}
		rl.evictStale(now)
		return true
	}
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// evictStale runs under the lock; called on window rollover so the map does
// not grow unbounded with one-off client IPs.
func (rl *RateLimiter) evictStale(now time.Time) {
	if len(rl.windows) < 10_000 {
		return
	}
	for k, w := range rl.windows {
		if now.Sub(w.start) >= rl.period {
			delete(rl.windows, k)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(shared.ClientIP(r)) {
			api.Fail(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
