package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusorbit_backend/internals/constants"
	"campusorbit_backend/internals/features/attendance/teacher_attendance/dto"
	"campusorbit_backend/internals/features/attendance/teacher_attendance/model"
	userModel "campusorbit_backend/internals/features/users/users/model"
	helper "campusorbit_backend/internals/helpers"
	"campusorbit_backend/internals/helpers/dbtime"
)

// BulkMark upserts one row per teacher for the date in a single transaction.
// Every teacher must be a teacher of the school; one unknown id rejects the
// whole batch.
func BulkMark(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, markedBy *uuid.UUID, req dto.TeacherBulkMarkRequest) (dto.TeacherBulkMarkResult, error) {
	var res dto.TeacherBulkMarkResult
	date, err := dbtime.ParseDate(req.Date)
	if err != nil {
		return res, helper.Validationf("invalid date %q", req.Date)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uuid.UUID, 0, len(req.Attendances))
		for _, r := range req.Attendances {
			ids = append(ids, r.TeacherID)
		}
		var known []uuid.UUID
		if err := tx.Model(&userModel.User{}).
			Where("user_school_id = ? AND user_role = ? AND user_id IN ?", schoolID, constants.RoleTeacher, ids).
			Pluck("user_id", &known).Error; err != nil {
			return err
		}
		ok := make(map[uuid.UUID]bool, len(known))
		for _, id := range known {
			ok[id] = true
		}

		for _, r := range req.Attendances {
			if !ok[r.TeacherID] {
				return helper.Validationf("teacher %s not found in this school", r.TeacherID)
			}
			status := r.Status
			if status == "" {
				status = model.TeacherPresent
			}
			if !status.Valid() {
				return helper.Validationf("invalid attendance status %q", status)
			}

			var att model.TeacherAttendance
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("teacher_attendance_teacher_id = ? AND teacher_attendance_date = ?", r.TeacherID, date).
				Take(&att).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				att = model.TeacherAttendance{
					TeacherAttendanceSchoolID:  schoolID,
					TeacherAttendanceTeacherID: r.TeacherID,
					TeacherAttendanceDate:      date,
					TeacherAttendanceStatus:    status,
					TeacherAttendanceRemarks:   r.Remarks,
					TeacherAttendanceMarkedBy:  markedBy,
				}
				if err := tx.Create(&att).Error; err != nil {
					if helper.IsUniqueViolation(err) {
						return helper.Conflictf("attendance for teacher %s on %s was marked concurrently", r.TeacherID, date.Format(dbtime.DateLayout))
					}
					return errors.Wrap(err, "create teacher attendance")
				}
				res.Created++
			case err != nil:
				return err
			default:
				att.TeacherAttendanceStatus = status
				att.TeacherAttendanceRemarks = r.Remarks
				att.TeacherAttendanceMarkedBy = markedBy
				if err := tx.Save(&att).Error; err != nil {
					return errors.Wrap(err, "update teacher attendance")
				}
				res.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return dto.TeacherBulkMarkResult{}, err
	}
	return res, nil
}

// Sheet lists the school's active teachers by name with their mark for the
// date, unmarked teachers included.
func Sheet(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, date time.Time) (dto.TeacherSheet, error) {
	date = dbtime.DateOnly(date)
	out := dto.TeacherSheet{Date: date.Format(dbtime.DateLayout), Teachers: []dto.TeacherSheetRow{}}

	var teachers []userModel.User
	if err := db.WithContext(ctx).
		Where("user_school_id = ? AND user_role = ? AND user_is_active = ?", schoolID, constants.RoleTeacher, true).
		Order("LOWER(user_first_name) ASC, LOWER(user_last_name) ASC, user_created_at ASC").
		Find(&teachers).Error; err != nil {
		return out, err
	}

	var marks []model.TeacherAttendance
	if err := db.WithContext(ctx).
		Where("teacher_attendance_school_id = ? AND teacher_attendance_date = ?", schoolID, date).
		Find(&marks).Error; err != nil {
		return out, err
	}
	byTeacher := make(map[uuid.UUID]model.TeacherAttendance, len(marks))
	for _, m := range marks {
		byTeacher[m.TeacherAttendanceTeacherID] = m
	}

	for _, u := range teachers {
		row := dto.TeacherSheetRow{TeacherID: u.UserID, TeacherName: u.FullName(), Email: u.UserEmail}
		if m, ok := byTeacher[u.UserID]; ok {
			status, id := m.TeacherAttendanceStatus, m.TeacherAttendanceID
			row.Status, row.AttendanceID, row.Remarks = &status, &id, m.TeacherAttendanceRemarks
		}
		out.Teachers = append(out.Teachers, row)
	}
	out.MarkedCount = len(marks)
	out.TotalCount = len(teachers)
	return out, nil
}

// List returns the school's rows, newest date first, optionally for one date.
func List(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, date *time.Time, p helper.Paging) ([]model.TeacherAttendance, int64, error) {
	q := db.WithContext(ctx).Model(&model.TeacherAttendance{}).
		Where("teacher_attendance_school_id = ?", schoolID)
	if date != nil {
		q = q.Where("teacher_attendance_date = ?", dbtime.DateOnly(*date))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.TeacherAttendance
	err := q.Order("teacher_attendance_date DESC, teacher_attendance_created_at ASC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error
	return rows, total, err
}
