package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	"campusorbit_backend/internals/features/schools/activity_logs/controller"
	authMiddleware "campusorbit_backend/internals/middlewares/auth"
)

func ActivityLogAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewActivityLogController(db)
	admin.Get("/activity-logs",
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("activity logs"), constants.AdminOnly...),
		ctl.ListForSchool)
}

func ActivityLogOwnerRoutes(owner fiber.Router, db *gorm.DB) {
	ctl := controller.NewActivityLogController(db)
	owner.Get("/activity-logs", ctl.ListAll)
}
