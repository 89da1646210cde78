package database

import (
	"log"

	"gorm.io/gorm"

	classModel "campusorbit_backend/internals/features/academics/classes/model"
	studentModel "campusorbit_backend/internals/features/academics/students/model"
	attendanceModel "campusorbit_backend/internals/features/attendance/student_attendance/model"
	teacherAttendanceModel "campusorbit_backend/internals/features/attendance/teacher_attendance/model"
	feeModel "campusorbit_backend/internals/features/finance/fees/model"
	activityModel "campusorbit_backend/internals/features/schools/activity_logs/model"
	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
	userModel "campusorbit_backend/internals/features/users/users/model"
)

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&schoolModel.School{},
		&schoolModel.SchoolFeatureToggle{},
		&userModel.User{},
		&classModel.Class{},
		&classModel.Section{},
		&studentModel.Student{},
		&attendanceModel.StudentAttendance{},
		&attendanceModel.AbsentAlert{},
		&teacherAttendanceModel.TeacherAttendance{},
		&feeModel.FeeStructure{},
		&feeModel.FeeRecord{},
		&feeModel.FeePayment{},
		&feeModel.FeeCheckout{},
		&activityModel.ActivityLog{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Println("[INFO] schema migrated")
	return nil
}
