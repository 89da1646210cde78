package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceHalfDay AttendanceStatus = "half_day"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceHalfDay:
		return true
	}
	return false
}

// StudentAttendance is one row per (student, date). The alert flags mirror
// the AbsentAlert lifecycle; at most one of sent/cancelled is ever true.
type StudentAttendance struct {
	StudentAttendanceID        uuid.UUID        `json:"student_attendance_id" gorm:"column:student_attendance_id;type:uuid;primaryKey"`
	StudentAttendanceSchoolID  uuid.UUID        `json:"student_attendance_school_id" gorm:"column:student_attendance_school_id;type:uuid;not null"`
	StudentAttendanceStudentID uuid.UUID        `json:"student_attendance_student_id" gorm:"column:student_attendance_student_id;type:uuid;not null;uniqueIndex:uq_student_attendance_student_date,priority:1"`
	StudentAttendanceSectionID uuid.UUID        `json:"student_attendance_section_id" gorm:"column:student_attendance_section_id;type:uuid;not null;index:idx_student_attendance_section_date,priority:1"`
	StudentAttendanceDate      time.Time        `json:"student_attendance_date" gorm:"column:student_attendance_date;type:date;not null;uniqueIndex:uq_student_attendance_student_date,priority:2;index:idx_student_attendance_section_date,priority:2"`
	StudentAttendanceStatus    AttendanceStatus `json:"student_attendance_status" gorm:"column:student_attendance_status;type:varchar(20);not null"`
	StudentAttendanceRemarks   *string          `json:"student_attendance_remarks,omitempty" gorm:"column:student_attendance_remarks;type:text"`
	StudentAttendanceMarkedBy  *uuid.UUID       `json:"student_attendance_marked_by,omitempty" gorm:"column:student_attendance_marked_by;type:uuid"`

	StudentAttendanceAlertScheduled bool `json:"student_attendance_alert_scheduled" gorm:"column:student_attendance_alert_scheduled;not null"`
	StudentAttendanceAlertSent      bool `json:"student_attendance_alert_sent" gorm:"column:student_attendance_alert_sent;not null"`
	StudentAttendanceAlertCancelled bool `json:"student_attendance_alert_cancelled" gorm:"column:student_attendance_alert_cancelled;not null"`

	StudentAttendanceCreatedAt time.Time `json:"student_attendance_created_at" gorm:"column:student_attendance_created_at;not null;autoCreateTime"`
	StudentAttendanceUpdatedAt time.Time `json:"student_attendance_updated_at" gorm:"column:student_attendance_updated_at;not null;autoUpdateTime"`
}

func (StudentAttendance) TableName() string { return "student_attendances" }

func (a *StudentAttendance) BeforeCreate(tx *gorm.DB) error {
	if a.StudentAttendanceID == uuid.Nil {
		a.StudentAttendanceID = uuid.New()
	}
	return nil
}

func (a StudentAttendance) IsAbsent() bool {
	return a.StudentAttendanceStatus == AttendanceAbsent
}
