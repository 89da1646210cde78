package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusorbit_backend/internals/constants"
	classModel "campusorbit_backend/internals/features/academics/classes/model"
	studentModel "campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/dto"
	"campusorbit_backend/internals/features/attendance/student_attendance/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/queue"
	helper "campusorbit_backend/internals/helpers"
	"campusorbit_backend/internals/helpers/dbtime"
)

type AttendanceService struct {
	DB     *gorm.DB
	Alerts *AlertService
}

func NewAttendanceService(db *gorm.DB, alerts *AlertService) *AttendanceService {
	return &AttendanceService{DB: db, Alerts: alerts}
}

// MarkInput is one attendance row to upsert.
type MarkInput struct {
	StudentID uuid.UUID
	Status    model.AttendanceStatus
	Remarks   *string
}

// CheckSectionAccess rejects teachers marking a section they are not the
// class teacher of. Admins pass.
func CheckSectionAccess(ctx context.Context, db *gorm.DB, schoolID, sectionID, userID uuid.UUID, role string) (classModel.Section, error) {
	var sec classModel.Section
	if err := db.WithContext(ctx).
		Where("section_id = ? AND section_school_id = ?", sectionID, schoolID).
		Take(&sec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sec, helper.NotFoundf("section %s", sectionID)
		}
		return sec, err
	}
	if role == constants.RoleTeacher {
		if sec.SectionClassTeacherID == nil || *sec.SectionClassTeacherID != userID {
			return sec, helper.Forbiddenf("you are not the class teacher of this section")
		}
	}
	return sec, nil
}

// MarkOne upserts a single row.
func (s *AttendanceService) MarkOne(ctx context.Context, schoolID, sectionID uuid.UUID, date time.Time, markedBy *uuid.UUID, in MarkInput) (model.StudentAttendance, bool, error) {
	rows, created, err := s.upsert(ctx, schoolID, sectionID, date, markedBy, []MarkInput{in})
	if err != nil {
		return model.StudentAttendance{}, false, err
	}
	s.syncAlerts(ctx, rows)
	return rows[0], created == 1, nil
}

// BulkMark upserts every row in one transaction keyed by (student, date) and
// then schedules or cancels absence alerts. Alert failures never fail the mark.
func (s *AttendanceService) BulkMark(ctx context.Context, schoolID uuid.UUID, markedBy *uuid.UUID, req dto.BulkMarkRequest) (dto.BulkMarkResult, error) {
	date, err := dbtime.ParseDate(req.Date)
	if err != nil {
		return dto.BulkMarkResult{}, helper.Validationf("invalid date %q", req.Date)
	}
	in := make([]MarkInput, 0, len(req.Attendances))
	for _, r := range req.Attendances {
		in = append(in, MarkInput{StudentID: r.StudentID, Status: r.Status, Remarks: r.Remarks})
	}

	rows, created, err := s.upsert(ctx, schoolID, req.SectionID, date, markedBy, in)
	if err != nil {
		return dto.BulkMarkResult{}, err
	}
	s.syncAlerts(ctx, rows)
	return dto.BulkMarkResult{Created: created, Updated: len(rows) - created}, nil
}

func (s *AttendanceService) upsert(ctx context.Context, schoolID, sectionID uuid.UUID, date time.Time, markedBy *uuid.UUID, in []MarkInput) ([]model.StudentAttendance, int, error) {
	date = dbtime.DateOnly(date)
	out := make([]model.StudentAttendance, 0, len(in))
	created := 0

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&classModel.Section{}).
			Where("section_id = ? AND section_school_id = ?", sectionID, schoolID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return helper.NotFoundf("section %s", sectionID)
		}

		ids := make([]uuid.UUID, 0, len(in))
		for _, r := range in {
			ids = append(ids, r.StudentID)
		}
		var known []uuid.UUID
		if err := tx.Model(&studentModel.Student{}).
			Where("student_school_id = ? AND student_id IN ?", schoolID, ids).
			Pluck("student_id", &known).Error; err != nil {
			return err
		}
		ok := make(map[uuid.UUID]bool, len(known))
		for _, id := range known {
			ok[id] = true
		}

		for _, r := range in {
			if !ok[r.StudentID] {
				return helper.Validationf("student %s not found in this school", r.StudentID)
			}
			status := r.Status
			if status == "" {
				status = model.AttendancePresent
			}
			if !status.Valid() {
				return helper.Validationf("invalid attendance status %q", status)
			}

			var att model.StudentAttendance
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("student_attendance_student_id = ? AND student_attendance_date = ?", r.StudentID, date).
				Take(&att).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				att = model.StudentAttendance{
					StudentAttendanceSchoolID:  schoolID,
					StudentAttendanceStudentID: r.StudentID,
					StudentAttendanceSectionID: sectionID,
					StudentAttendanceDate:      date,
					StudentAttendanceStatus:    status,
					StudentAttendanceRemarks:   r.Remarks,
					StudentAttendanceMarkedBy:  markedBy,
				}
				if err := tx.Create(&att).Error; err != nil {
					if helper.IsUniqueViolation(err) {
						return helper.Conflictf("attendance for student %s on %s was marked concurrently", r.StudentID, date.Format(dbtime.DateLayout))
					}
					return errors.Wrap(err, "create attendance")
				}
				created++
			case err != nil:
				return err
			default:
				att.StudentAttendanceSectionID = sectionID
				att.StudentAttendanceStatus = status
				att.StudentAttendanceRemarks = r.Remarks
				att.StudentAttendanceMarkedBy = markedBy
				if err := tx.Save(&att).Error; err != nil {
					return errors.Wrap(err, "update attendance")
				}
			}
			out = append(out, att)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, created, nil
}

// syncAlerts schedules alerts for absent rows and cancels them for corrected
// rows. Errors are logged only.
func (s *AttendanceService) syncAlerts(ctx context.Context, rows []model.StudentAttendance) {
	if s.Alerts == nil {
		return
	}
	for _, att := range rows {
		var err error
		switch {
		case att.IsAbsent() && !att.StudentAttendanceAlertSent:
			err = s.Alerts.ScheduleAlert(ctx, att.StudentAttendanceID)
		case !att.IsAbsent() && att.StudentAttendanceAlertScheduled && !att.StudentAttendanceAlertSent:
			err = s.Alerts.CancelAlert(ctx, att.StudentAttendanceID)
		}
		if err == nil {
			continue
		}
		if errors.Is(err, queue.ErrNotConfigured) {
			log.Printf("[ALERT] queue not configured, alert for %s left to the sweep", att.StudentAttendanceID)
			continue
		}
		log.Printf("[ALERT] sync for attendance %s: %v", att.StudentAttendanceID, err)
		helper.Report(err, map[string]interface{}{"attendance_id": att.StudentAttendanceID.String()})
	}
}
