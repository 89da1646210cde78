package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	"campusorbit_backend/internals/features/schools/schools/controller"
	authMiddleware "campusorbit_backend/internals/middlewares/auth"
)

// SchoolOwnerRoutes mounts under /api/o (platform admins).
func SchoolOwnerRoutes(owner fiber.Router, db *gorm.DB) {
	ctl := controller.NewSchoolController(db)

	g := owner.Group("/schools")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Create)
	g.Get("/:id", ctl.Get)
	g.Patch("/:id", ctl.Update)
	g.Get("/:id/features", ctl.GetFeatures)
	g.Patch("/:id/features", ctl.UpdateFeatures)
}

// SchoolAdminRoutes mounts under /api/a.
func SchoolAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewSchoolController(db)
	admin.Get("/school",
		authMiddleware.OnlyRoles(constants.RoleErrorStaff("school profile"), constants.SchoolStaff...),
		ctl.Mine)
}
