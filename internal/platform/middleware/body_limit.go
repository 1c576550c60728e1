package middleware

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// BodyLimit refuses request bodies over limit bytes with 413. The HL7v2
// routes pass the parser's message size ceiling, so the response carries the
// same MessageTooLarge kind the parser would report.
func BodyLimit(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			if req.ContentLength > limit {
				return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
					"error": fmt.Sprintf("message exceeds the maximum size of %d bytes", limit),
					"kind":  "MessageTooLarge",
				})
			}

			// Content-Length may be absent or wrong; count while reading.
			req.Body = &cappedBody{rc: req.Body, left: limit}
			return next(c)
		}
	}
}

// cappedBody fails reads once more than left bytes have been consumed.
type cappedBody struct {
	rc   io.ReadCloser
	left int64
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.left < 0 {
		return 0, tooLarge()
	}
	if int64(len(p)) > b.left+1 {
		p = p[:b.left+1]
	}
	n, err := b.rc.Read(p)
	b.left -= int64(n)
	if b.left < 0 {
		return 0, tooLarge()
	}
	return n, err
}

func (b *cappedBody) Close() error { return b.rc.Close() }

func tooLarge() error {
	return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "message exceeds the maximum size")
}
