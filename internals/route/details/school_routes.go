package details

import (
	activityRoute "campusorbit_backend/internals/features/schools/activity_logs/route"
	schoolRoute "campusorbit_backend/internals/features/schools/schools/route"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SchoolAdminRoutes(r fiber.Router, db *gorm.DB) {
	schoolRoute.SchoolAdminRoutes(r, db)
	activityRoute.ActivityLogAdminRoutes(r, db)
}

func SchoolOwnerRoutes(r fiber.Router, db *gorm.DB) {
	schoolRoute.SchoolOwnerRoutes(r, db)
	activityRoute.ActivityLogOwnerRoutes(r, db)
}
