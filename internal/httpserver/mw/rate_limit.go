package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig bounds how often one client may run corpus-wide scans.
type RateLimitConfig struct {
	Burst             int
	RefillPerIPPerMin int
	MaxEntries        int
	IdleTTL           time.Duration
	TrustProxy        bool // resolve IP from proxy headers when true
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// limiter is a token bucket per client key.
type limiter struct {
	mu       sync.Mutex
	rate     float64 // tokens per second
	capacity float64
	maxKeys  int
	idleTTL  time.Duration
	buckets  map[string]*bucket
	now      func() time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	return &limiter{
		rate:     float64(max(cfg.RefillPerIPPerMin, 1)) / 60.0,
		capacity: float64(max(cfg.Burst, 1)),
		maxKeys:  cfg.MaxEntries,
		idleTTL:  cfg.IdleTTL,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

// take consumes one token. On refusal it returns the seconds until the
// next token is available.
func (l *limiter) take(key string) (ok bool, remaining int, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[key]
	if b == nil {
		if l.maxKeys > 0 && len(l.buckets) >= l.maxKeys {
			l.evictIdle(now)
		}
		b = &bucket{tokens: l.capacity, lastSeen: now}
		l.buckets[key] = b
	}

	b.tokens = math.Min(l.capacity, b.tokens+now.Sub(b.lastSeen).Seconds()*l.rate)
	b.lastSeen = now

	if b.tokens < 1 {
		wait := int(math.Ceil((1 - b.tokens) / l.rate))
		return false, 0, max(wait, 1)
	}
	b.tokens--
	return true, int(b.tokens), 0
}

func (l *limiter) evictIdle(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, k)
		}
	}
}

// RateLimit rejects clients that exhausted their bucket with 429 and a
// Retry-After header.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limitStr := strconv.Itoa(int(l.capacity))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retry := l.take(ClientIP(r, cfg.TrustProxy).String())
			w.Header().Set("X-RateLimit-Limit", limitStr)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
