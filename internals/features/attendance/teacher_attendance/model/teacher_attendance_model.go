package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeacherAttendanceStatus string

const (
	TeacherPresent TeacherAttendanceStatus = "present"
	TeacherAbsent  TeacherAttendanceStatus = "absent"
	TeacherLate    TeacherAttendanceStatus = "late"
	TeacherHalfDay TeacherAttendanceStatus = "half_day"
	TeacherOnLeave TeacherAttendanceStatus = "on_leave"
)

func (s TeacherAttendanceStatus) Valid() bool {
	switch s {
	case TeacherPresent, TeacherAbsent, TeacherLate, TeacherHalfDay, TeacherOnLeave:
		return true
	}
	return false
}

// TeacherAttendance is one row per (teacher, date). The teacher is a user with
// the teacher role.
type TeacherAttendance struct {
	TeacherAttendanceID        uuid.UUID               `json:"teacher_attendance_id" gorm:"column:teacher_attendance_id;type:uuid;primaryKey"`
	TeacherAttendanceSchoolID  uuid.UUID               `json:"teacher_attendance_school_id" gorm:"column:teacher_attendance_school_id;type:uuid;not null;index:idx_teacher_attendance_school_date,priority:1"`
	TeacherAttendanceTeacherID uuid.UUID               `json:"teacher_attendance_teacher_id" gorm:"column:teacher_attendance_teacher_id;type:uuid;not null;uniqueIndex:uq_teacher_attendance_teacher_date,priority:1"`
	TeacherAttendanceDate      time.Time               `json:"teacher_attendance_date" gorm:"column:teacher_attendance_date;type:date;not null;uniqueIndex:uq_teacher_attendance_teacher_date,priority:2;index:idx_teacher_attendance_school_date,priority:2"`
	TeacherAttendanceStatus    TeacherAttendanceStatus `json:"teacher_attendance_status" gorm:"column:teacher_attendance_status;type:varchar(20);not null"`
	TeacherAttendanceRemarks   *string                 `json:"teacher_attendance_remarks,omitempty" gorm:"column:teacher_attendance_remarks;type:text"`
	TeacherAttendanceMarkedBy  *uuid.UUID              `json:"teacher_attendance_marked_by,omitempty" gorm:"column:teacher_attendance_marked_by;type:uuid"`

	TeacherAttendanceCreatedAt time.Time `json:"teacher_attendance_created_at" gorm:"column:teacher_attendance_created_at;not null;autoCreateTime"`
	TeacherAttendanceUpdatedAt time.Time `json:"teacher_attendance_updated_at" gorm:"column:teacher_attendance_updated_at;not null;autoUpdateTime"`
}

func (TeacherAttendance) TableName() string { return "teacher_attendances" }

func (a *TeacherAttendance) BeforeCreate(tx *gorm.DB) error {
	if a.TeacherAttendanceID == uuid.Nil {
		a.TeacherAttendanceID = uuid.New()
	}
	return nil
}
