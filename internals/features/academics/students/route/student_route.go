package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	"campusorbit_backend/internals/features/academics/students/controller"
	authMiddleware "campusorbit_backend/internals/middlewares/auth"
)

func StudentAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewStudentController(db)
	staff := authMiddleware.OnlyRoles(constants.RoleErrorStaff("students"), constants.SchoolStaff...)
	adminOnly := authMiddleware.OnlyRoles(constants.RoleErrorAdmin("students"), constants.AdminOnly...)

	g := admin.Group("/students")
	g.Get("/", staff, ctl.List)
	g.Get("/:id", staff, ctl.Get)
	g.Post("/", adminOnly, ctl.Create)
	g.Post("/import", adminOnly, ctl.Import)
	g.Patch("/:id", adminOnly, ctl.Update)
	g.Post("/:id/toggle-active", adminOnly, ctl.ToggleActive)
}
