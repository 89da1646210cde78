package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"campusorbit_backend/internals/configs"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3001",
	"http://127.0.0.1:5500",
}

// CorsMiddleware allows the origins in CORS_ORIGINS (comma separated), or the
// local dev origins when unset.
func CorsMiddleware() fiber.Handler {
	origins := defaultOrigins
	if v := strings.TrimSpace(configs.GetEnv("CORS_ORIGINS")); v != "" {
		origins = strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ", "),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-School-ID, X-Request-ID",
		AllowCredentials: true,
	})
}
