package middlewares

import (
	"github.com/gofiber/fiber/v2"

	helper "campusorbit_backend/internals/helpers"
	"campusorbit_backend/internals/middlewares/logger"
)

func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(logger.LoggerMiddleware())
}

// ErrorHandler renders every error a handler returns in the JSON envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return helper.FromError(c, err)
}
