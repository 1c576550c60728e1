package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		rid := c.Get("request_id").(string)
		if rid == "" {
			t.Error("expected request_id to be generated")
		}
		return c.String(http.StatusOK, "ok")
	}

	mw := RequestID()
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		rid := c.Get("request_id").(string)
		if rid != "my-custom-id" {
			t.Errorf("expected my-custom-id, got %s", rid)
		}
		return c.String(http.StatusOK, "ok")
	}

	mw := RequestID()
	h := mw(handler)
	h(c)

	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Logger()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hl7v2/ack", strings.NewReader("MSH|^~\\&|"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "rid-1")

	handler := func(c echo.Context) error {
		c.Response().Header().Set(AckCodeHeader, "AE")
		c.Response().Header().Set(DuplicateHeader, "true")
		return c.String(http.StatusOK, "ok")
	}

	mw := Logger(logger)
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"request_id":"rid-1"`, `"path":"/api/v1/hl7v2/ack"`, `"status":200`, `"ack_code":"AE"`, `"duplicate":true`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log line to contain %s, got %s", want, out)
		}
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hl7v2/parse", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		panic("test panic")
	}

	mw := Recovery(logger)
	h := mw(handler)
	err := h(c)

	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
	if !strings.Contains(buf.String(), `"panic":"test panic"`) {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	logger := zerolog.New(os.Stderr).With().Logger()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := Recovery(logger)
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
