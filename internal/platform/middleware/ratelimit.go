package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig bounds how many messages a single client may submit to
// the inspection API. A zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL is how long an untouched client bucket is kept before it is
	// swept. Zero keeps buckets forever.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns the limits used when none are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		Burst:             100,
		IdleTTL:           10 * time.Minute,
	}
}

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// clientLimiter holds one token bucket per client address.
type clientLimiter struct {
	cfg       RateLimitConfig
	now       func() time.Time
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	lastSweep time.Time
}

func newClientLimiter(cfg RateLimitConfig, now func() time.Time) *clientLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &clientLimiter{
		cfg:       cfg,
		now:       now,
		buckets:   make(map[string]*tokenBucket),
		lastSweep: now(),
	}
}

// take consumes one token for key. When the bucket is empty it reports the
// whole seconds until the next token is available.
func (l *clientLimiter) take(key string) (ok bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, found := l.buckets[key]
	if !found {
		b = &tokenBucket{tokens: float64(l.cfg.Burst), lastSeen: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * l.cfg.RequestsPerSecond
	if ceiling := float64(l.cfg.Burst); b.tokens > ceiling {
		b.tokens = ceiling
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	return false, int((1-b.tokens)/l.cfg.RequestsPerSecond) + 1
}

func (l *clientLimiter) sweep(now time.Time) {
	if l.cfg.IdleTTL <= 0 || now.Sub(l.lastSweep) < l.cfg.IdleTTL {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit limits requests per client IP with a token bucket and answers
// 429 with Retry-After once a client's bucket is empty.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	return rateLimit(cfg, time.Now)
}

func rateLimit(cfg RateLimitConfig, now func() time.Time) echo.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	limiter := newClientLimiter(cfg, now)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retryAfter := limiter.take(c.RealIP())
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
