package logger

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"campusorbit_backend/internals/helpers/dbtime"
)

// LoggerMiddleware writes one line per request.
func LoggerMiddleware() fiber.Handler {
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   dbtime.DefaultTimezone,
		Format:     "[${time}] ${ip} - ${locals:reqid} ${method} ${path} - ${status} - ${latency}\n",
	})
}
