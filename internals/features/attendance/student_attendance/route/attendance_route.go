package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	"campusorbit_backend/internals/features/attendance/student_attendance/controller"
	"campusorbit_backend/internals/features/attendance/student_attendance/service"
	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
	authMiddleware "campusorbit_backend/internals/middlewares/auth"
	featureMiddleware "campusorbit_backend/internals/middlewares/features"
)

// AttendanceAdminRoutes mounts under /api/a.
func AttendanceAdminRoutes(admin fiber.Router, db *gorm.DB, svc *service.AttendanceService) {
	ctl := controller.NewAttendanceController(db, svc)
	markers := authMiddleware.OnlyRoles(constants.RoleErrorStaff("attendance"), constants.TeacherAndAdmin...)
	adminOnly := authMiddleware.OnlyRoles(constants.RoleErrorAdmin("absence alerts"), constants.AdminOnly...)

	g := admin.Group("/attendance", featureMiddleware.RequireFeature(db, schoolModel.FeatureAttendance))
	g.Get("/", markers, ctl.List)
	g.Post("/bulk-mark", markers, ctl.BulkMark)
	g.Post("/mark", markers, ctl.MarkOne)
	g.Get("/sections/:section_id", markers, ctl.BySection)
	g.Get("/students/:id/history", markers, ctl.StudentHistory)
	g.Get("/alerts", adminOnly, ctl.ListAlerts)
}

// AttendanceUserRoutes mounts under /api/u.
func AttendanceUserRoutes(user fiber.Router, db *gorm.DB) {
	ctl := controller.NewAttendanceController(db, nil)
	students := authMiddleware.OnlyRoles("only students have an attendance history", constants.RoleStudent)

	g := user.Group("/attendance", featureMiddleware.RequireFeature(db, schoolModel.FeatureAttendance))
	g.Get("/my-history", students, ctl.MyHistory)
}
