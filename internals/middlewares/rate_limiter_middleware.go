package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "campusorbit_backend/internals/helpers"
)

func limitBy(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// GlobalRateLimiter applies to every API route.
func GlobalRateLimiter() fiber.Handler {
	return limitBy(300, time.Minute, "too many requests, please try again later")
}

// LoginRateLimiter is stricter.
func LoginRateLimiter() fiber.Handler {
	return limitBy(5, time.Minute, "too many login attempts, please try again in a minute")
}

// WebhookRateLimiter keeps a misbehaving gateway from flooding the ledger.
func WebhookRateLimiter() fiber.Handler {
	return limitBy(120, time.Minute, "too many notifications")
}
