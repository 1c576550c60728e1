package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestTimeout puts a deadline of timeout on each request context. When the
// handler is still running at the deadline the client gets a 504 and the
// timeout is logged. A non-positive timeout leaves requests unbounded.
func RequestTimeout(timeout time.Duration, logger zerolog.Logger) echo.MiddlewareFunc {
	if timeout <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() { done <- next(c) }()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
			}

			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				// client went away
				return ctx.Err()
			}

			rid, _ := c.Get("request_id").(string)
			logger.Warn().
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Dur("timeout", timeout).
				Msg("request timed out")

			if c.Response().Committed {
				return nil
			}
			return c.JSON(http.StatusGatewayTimeout, map[string]string{
				"error": "request exceeded the " + timeout.String() + " time limit",
			})
		}
	}
}
