package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/features/users/auth/controller"
	"campusorbit_backend/internals/middlewares"
)

// AuthRoutes mounts /api/auth (public) and the global rate limit.
func AuthRoutes(app fiber.Router, db *gorm.DB) {
	ctl := controller.NewAuthController(db)
	app.Use(middlewares.GlobalRateLimiter())
	g := app.Group("/api/auth")
	g.Post("/login", middlewares.LoginRateLimiter(), ctl.Login)
}

// MeRoutes mounts under /api/u.
func MeRoutes(user fiber.Router, db *gorm.DB) {
	ctl := controller.NewAuthController(db)
	user.Get("/me", ctl.Me)
}
