package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/plantogether/api/internal/model"
)

// RateLimitConfig tunes the per-caller request budget.
type RateLimitConfig struct {
	Rate    int           // sustained requests per window (default 100)
	Window  time.Duration // refill window (default 1 minute)
	Burst   int           // extra headroom above Rate (default 20)
	Cleanup time.Duration // idle bucket eviction interval (default 5 minutes)
}

// RateLimiter tracks a token bucket per caller. Authenticated callers are
// keyed by user id so one account cannot dodge its budget by rotating
// addresses; anonymous callers share a bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	rate    int
	window  time.Duration
	burst   int
	cleanup time.Duration
	stop    chan struct{}
}

// bucket refills continuously at rate/window, capped at rate+burst.
type bucket struct {
	tokens  float64
	updated time.Time
}

// NewRateLimiter builds a limiter and starts its eviction loop. Call Stop
// on shutdown.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate == 0 {
		cfg.Rate = 100
	}
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst == 0 {
		cfg.Burst = 20
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = 5 * time.Minute
	}

	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    cfg.Rate,
		window:  cfg.Window,
		burst:   cfg.Burst,
		cleanup: cfg.Cleanup,
		stop:    make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

// Stop halts the eviction goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

// evictIdle drops buckets untouched for two full windows; they would be
// back at capacity anyway.
func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-2 * rl.window)
	for key, b := range rl.buckets {
		if b.updated.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) capacity() float64 {
	return float64(rl.rate + rl.burst)
}

// Allow spends one token for key, reporting whether the request may
// proceed, how many tokens remain, and when the bucket is full again.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity()}
		rl.buckets[key] = b
	} else {
		refill := float64(rl.rate) * now.Sub(b.updated).Seconds() / rl.window.Seconds()
		b.tokens = min(b.tokens+refill, rl.capacity())
	}
	b.updated = now

	perToken := rl.window.Seconds() / float64(rl.rate)
	if b.tokens < 1 {
		wait := (1 - b.tokens) * perToken
		return false, 0, now.Add(time.Duration(wait * float64(time.Second)))
	}

	b.tokens--
	refillAll := (rl.capacity() - b.tokens) * perToken
	return true, int(b.tokens), now.Add(time.Duration(refillAll * float64(time.Second)))
}

// RateLimit enforces the request budget and reports it via the standard
// X-RateLimit headers. Over-budget requests get a 429 problem response
// with Retry-After.
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetUserID(r.Context())
			if key == "" {
				key = clientIP(r)
			}

			allowed, remaining, reset := limiter.Allow(key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.rate))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if !allowed {
				retryAfter := int(time.Until(reset).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				model.NewRateLimitError(retryAfter).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is the remote address without the ephemeral port, so one
// client maps to one bucket across connections.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
