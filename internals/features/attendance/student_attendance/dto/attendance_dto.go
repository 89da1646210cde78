package dto

import (
	"time"

	"github.com/google/uuid"

	"campusorbit_backend/internals/features/attendance/student_attendance/model"
)

type MarkAttendanceRequest struct {
	StudentID uuid.UUID              `json:"student_id" validate:"required"`
	SectionID uuid.UUID              `json:"section_id" validate:"required"`
	Date      string                 `json:"date" validate:"required,datetime=2006-01-02"`
	Status    model.AttendanceStatus `json:"status" validate:"required,oneof=present absent late half_day"`
	Remarks   *string                `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

type BulkMarkRow struct {
	StudentID uuid.UUID              `json:"student_id" validate:"required"`
	Status    model.AttendanceStatus `json:"status" validate:"omitempty,oneof=present absent late half_day"`
	Remarks   *string                `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

type BulkMarkRequest struct {
	SectionID   uuid.UUID     `json:"section_id" validate:"required"`
	Date        string        `json:"date" validate:"required,datetime=2006-01-02"`
	Attendances []BulkMarkRow `json:"attendances" validate:"required,min=1,max=500,dive"`
}

type BulkMarkResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type SectionSheetRow struct {
	StudentID       uuid.UUID               `json:"student_id"`
	StudentName     string                  `json:"student_name"`
	AdmissionNumber string                  `json:"admission_number"`
	RollNumber      *string                 `json:"roll_number"`
	Status          *model.AttendanceStatus `json:"status"`
	AttendanceID    *uuid.UUID              `json:"attendance_id"`
	Remarks         *string                 `json:"remarks"`
}

type SectionSheet struct {
	Date        string            `json:"date"`
	SectionID   uuid.UUID         `json:"section_id"`
	Students    []SectionSheetRow `json:"students"`
	MarkedCount int               `json:"marked_count"`
	TotalCount  int               `json:"total_count"`
}

type HistorySummary struct {
	TotalDays   int64   `json:"total_days"`
	PresentDays int64   `json:"present_days"`
	AbsentDays  int64   `json:"absent_days"`
	LateDays    int64   `json:"late_days"`
	Percentage  float64 `json:"percentage"`
}

type StudentHistory struct {
	Summary HistorySummary            `json:"summary"`
	Records []model.StudentAttendance `json:"records"`
}

type AlertListQuery struct {
	Status    *model.AlertStatus
	SectionID *uuid.UUID
	From      *time.Time
	To        *time.Time
}
