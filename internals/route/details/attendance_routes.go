package details

import (
	attendanceRoute "campusorbit_backend/internals/features/attendance/student_attendance/route"
	attendanceService "campusorbit_backend/internals/features/attendance/student_attendance/service"
	teacherAttendanceRoute "campusorbit_backend/internals/features/attendance/teacher_attendance/route"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func AttendanceAdminRoutes(r fiber.Router, db *gorm.DB, svc *attendanceService.AttendanceService) {
	attendanceRoute.AttendanceAdminRoutes(r, db, svc)
	teacherAttendanceRoute.TeacherAttendanceAdminRoutes(r, db)
}

func AttendanceUserRoutes(r fiber.Router, db *gorm.DB) {
	attendanceRoute.AttendanceUserRoutes(r, db)
}
