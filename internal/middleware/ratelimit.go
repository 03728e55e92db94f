package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

// RateLimit allows limit requests per caller per window. Anonymous callers
// are keyed by IP.
func RateLimit(l Limiter, prefix string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil || limit <= 0 {
			return c.Next()
		}
		key := c.IP()
		if p := PrincipalFrom(c); p.UserID != uuid.Nil {
			key = p.UserID.String()
		}
		if !l.Allow(c.UserContext(), prefix+":"+key, limit, window) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Too many requests, please slow down",
			})
		}
		return c.Next()
	}
}
