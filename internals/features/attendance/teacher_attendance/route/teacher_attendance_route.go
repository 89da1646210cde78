package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	"campusorbit_backend/internals/features/attendance/teacher_attendance/controller"
	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
	authMiddleware "campusorbit_backend/internals/middlewares/auth"
	featureMiddleware "campusorbit_backend/internals/middlewares/features"
)

// TeacherAttendanceAdminRoutes mounts under /api/a. School admins only.
func TeacherAttendanceAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewTeacherAttendanceController(db)

	g := admin.Group("/teacher-attendance",
		featureMiddleware.RequireFeature(db, schoolModel.FeatureAttendance),
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("teacher attendance"), constants.AdminOnly...),
	)
	g.Get("/", ctl.List)
	g.Get("/today", ctl.Today)
	g.Post("/bulk-mark", ctl.BulkMark)
}
