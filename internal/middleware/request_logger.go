package middleware

import (
	"time"

	"perpetua/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestLogger tags each request with an id and logs it once it completes.
// An incoming X-Request-ID is reused so ids can be traced across services.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(requestIDKey, requestID)
		c.Set(RequestIDHeader, requestID)

		chainErr := c.Next()
		if chainErr != nil {
			// Write the error response now so the logged status is the real one.
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if userID, ok := UserID(c); ok {
			fields = append(fields, zap.String("user_id", userID))
		}
		logger.Get().Info("HTTP request", fields...)
		return nil
	}
}

// RequestID returns the id assigned by RequestLogger, or "" outside it.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}
