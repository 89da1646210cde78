package dto

import (
	"github.com/google/uuid"

	"campusorbit_backend/internals/features/attendance/teacher_attendance/model"
)

type TeacherMarkRow struct {
	TeacherID uuid.UUID                     `json:"teacher_id" validate:"required"`
	Status    model.TeacherAttendanceStatus `json:"status" validate:"omitempty,oneof=present absent late half_day on_leave"`
	Remarks   *string                       `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

type TeacherBulkMarkRequest struct {
	Date        string           `json:"date" validate:"required,datetime=2006-01-02"`
	Attendances []TeacherMarkRow `json:"attendances" validate:"required,min=1,max=500,dive"`
}

type TeacherBulkMarkResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type TeacherSheetRow struct {
	TeacherID    uuid.UUID                      `json:"teacher_id"`
	TeacherName  string                         `json:"teacher_name"`
	Email        string                         `json:"email"`
	Status       *model.TeacherAttendanceStatus `json:"status"`
	AttendanceID *uuid.UUID                     `json:"attendance_id"`
	Remarks      *string                        `json:"remarks"`
}

type TeacherSheet struct {
	Date        string            `json:"date"`
	Teachers    []TeacherSheetRow `json:"teachers"`
	MarkedCount int               `json:"marked_count"`
	TotalCount  int               `json:"total_count"`
}
