package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSecurityHeaders_SetsHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hl7v2/parse", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := SecurityHeaders(true)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":           "no-referrer",
		"Cache-Control":             "no-store",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	}
	for header, want := range expected {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("header %s: got %q, want %q", header, got, want)
		}
	}
}

func TestSecurityHeaders_NoHSTS(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := SecurityHeaders(false)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("expected no HSTS header, got %q", got)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected Cache-Control no-store")
	}
}

func TestSecurityHeaders_PropagatesHandlerError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := SecurityHeaders(false)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})
	err := h(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected headers to be set on error responses")
	}
}
