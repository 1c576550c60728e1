package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func doRequest(e *echo.Echo, h echo.HandlerFunc, ip string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hl7v2/parse", nil)
	req.RemoteAddr = ip + ":5000"
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRateLimit_WithinBurst(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 10, Burst: 5})(okHandler)

	for i := 0; i < 5; i++ {
		rec, err := doRequest(e, h, "10.0.0.1")
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit 10, got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	clock := newFakeClock()
	e := echo.New()
	h := rateLimit(RateLimitConfig{RequestsPerSecond: 0.5, Burst: 2}, clock.now)(okHandler)

	for i := 0; i < 2; i++ {
		if _, err := doRequest(e, h, "10.0.0.1"); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i+1, err)
		}
	}

	rec, err := doRequest(e, h, "10.0.0.1")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "3" {
		t.Errorf("expected Retry-After 3, got %q", got)
	}

	clock.advance(2 * time.Second)
	if _, err := doRequest(e, h, "10.0.0.1"); err != nil {
		t.Errorf("expected a token after refill, got %v", err)
	}
}

func TestRateLimit_PerClient(t *testing.T) {
	clock := newFakeClock()
	e := echo.New()
	h := rateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}, clock.now)(okHandler)

	if _, err := doRequest(e, h, "10.0.0.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := doRequest(e, h, "10.0.0.1"); err == nil {
		t.Error("expected first client to be limited")
	}
	if _, err := doRequest(e, h, "10.0.0.2"); err != nil {
		t.Errorf("expected second client to have its own bucket, got %v", err)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{})(okHandler)

	for i := 0; i < 50; i++ {
		rec, err := doRequest(e, h, "10.0.0.1")
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i+1, err)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "" {
			t.Fatal("expected no rate limit header when disabled")
		}
	}
}

func TestClientLimiter_SweepsIdleBuckets(t *testing.T) {
	clock := newFakeClock()
	l := newClientLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute}, clock.now)

	l.take("a")
	l.take("b")
	if l.size() != 2 {
		t.Fatalf("expected 2 buckets, got %d", l.size())
	}

	clock.advance(2 * time.Minute)
	l.take("c")
	if l.size() != 1 {
		t.Errorf("expected idle buckets to be swept, got %d", l.size())
	}
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond <= 0 || cfg.Burst < 1 || cfg.IdleTTL <= 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
