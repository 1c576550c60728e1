package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Set by the HL7v2 handlers on acknowledgment responses.
const (
	AckCodeHeader   = "X-HL7-Ack-Code"
	DuplicateHeader = "X-HL7-Duplicate"
)

// Logger writes one line per request, including the ACK code and the
// retransmission flag when the handler set them.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			if code := c.Response().Header().Get(AckCodeHeader); code != "" {
				evt = evt.Str("ack_code", code)
			}
			if c.Response().Header().Get(DuplicateHeader) == "true" {
				evt = evt.Bool("duplicate", true)
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int64("bytes_in", req.ContentLength).
				Int64("bytes_out", c.Response().Size).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
