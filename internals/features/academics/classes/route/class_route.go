package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	"campusorbit_backend/internals/features/academics/classes/controller"
	authMiddleware "campusorbit_backend/internals/middlewares/auth"
)

// ClassAdminRoutes mounts under /api/a. Staff may read, admins write.
func ClassAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewClassController(db)
	staff := authMiddleware.OnlyRoles(constants.RoleErrorStaff("classes"), constants.SchoolStaff...)
	adminOnly := authMiddleware.OnlyRoles(constants.RoleErrorAdmin("classes"), constants.AdminOnly...)

	classes := admin.Group("/classes")
	classes.Get("/", staff, ctl.ListClasses)
	classes.Get("/:id", staff, ctl.GetClass)
	classes.Post("/", adminOnly, ctl.CreateClass)
	classes.Patch("/:id", adminOnly, ctl.UpdateClass)
	classes.Delete("/:id", adminOnly, ctl.DeleteClass)
	classes.Post("/:id/sections", adminOnly, ctl.CreateSection)

	sections := admin.Group("/sections")
	sections.Patch("/:id", adminOnly, ctl.UpdateSection)
	sections.Delete("/:id", adminOnly, ctl.DeleteSection)
	sections.Post("/:id/recalculate-roll-numbers", adminOnly, ctl.RecalculateRollNumbers)
}
