package middleware

import (
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/andressep95/session-auth/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

const (
	requestIDKey    = "request_id"
	HeaderRequestID = "X-Request-ID"
)

// RequestID tags each request with a ULID, reusing an inbound X-Request-ID.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
		}

		c.Locals(requestIDKey, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

// LoggerMiddleware logs each request and records its latency. Errors are
// rendered here so the logged status is the one the client sees.
func LoggerMiddleware(log *slog.Logger, rec *metrics.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		latency := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		rec.ObserveHTTP(c.Method(), route, status, latency)

		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}

		requestID, _ := c.Locals(requestIDKey).(string)
		log.Log(c.UserContext(), level, "request completed",
			"request_id", requestID,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", latency,
			"ip", c.IP(),
			"user_agent", c.Get(fiber.HeaderUserAgent),
		)

		return nil
	}
}
