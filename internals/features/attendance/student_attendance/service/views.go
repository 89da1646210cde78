package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	studentModel "campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/dto"
	"campusorbit_backend/internals/features/attendance/student_attendance/model"
	helper "campusorbit_backend/internals/helpers"
	"campusorbit_backend/internals/helpers/dbtime"
)

const historyLimit = 50

// BySection lists every active student of the section with their attendance
// on date (nil when not marked yet), in roll-number order.
func BySection(ctx context.Context, db *gorm.DB, schoolID, sectionID uuid.UUID, date time.Time) (dto.SectionSheet, error) {
	date = dbtime.DateOnly(date)
	sheet := dto.SectionSheet{Date: date.Format(dbtime.DateLayout), SectionID: sectionID, Students: []dto.SectionSheetRow{}}

	var students []studentModel.Student
	if err := db.WithContext(ctx).
		Where("student_school_id = ? AND student_section_id = ? AND student_status = ?", schoolID, sectionID, studentModel.StudentStatusActive).
		Find(&students).Error; err != nil {
		return sheet, err
	}
	sortByRoll(students)

	var rows []model.StudentAttendance
	if err := db.WithContext(ctx).
		Where("student_attendance_section_id = ? AND student_attendance_date = ?", sectionID, date).
		Find(&rows).Error; err != nil {
		return sheet, err
	}
	byStudent := make(map[uuid.UUID]model.StudentAttendance, len(rows))
	for _, r := range rows {
		byStudent[r.StudentAttendanceStudentID] = r
	}

	for _, st := range students {
		row := dto.SectionSheetRow{
			StudentID:       st.StudentID,
			StudentName:     st.FullName(),
			AdmissionNumber: st.StudentAdmissionNumber,
			RollNumber:      st.StudentRollNumber,
		}
		if att, ok := byStudent[st.StudentID]; ok {
			status, id := att.StudentAttendanceStatus, att.StudentAttendanceID
			row.Status = &status
			row.AttendanceID = &id
			row.Remarks = att.StudentAttendanceRemarks
		}
		sheet.Students = append(sheet.Students, row)
	}
	sheet.MarkedCount = len(rows)
	sheet.TotalCount = len(students)
	return sheet, nil
}

// sortByRoll orders numerically; students without a roll number go last.
func sortByRoll(list []studentModel.Student) {
	rank := func(s studentModel.Student) int {
		if s.StudentRollNumber == nil {
			return math.MaxInt
		}
		n, err := strconv.Atoi(*s.StudentRollNumber)
		if err != nil {
			return math.MaxInt
		}
		return n
	}
	sort.SliceStable(list, func(i, j int) bool { return rank(list[i]) < rank(list[j]) })
}

// StudentHistory summarizes a student's attendance between from and to
// (both optional, inclusive) and returns the latest records.
func StudentHistory(ctx context.Context, db *gorm.DB, studentID uuid.UUID, from, to *time.Time) (dto.StudentHistory, error) {
	out := dto.StudentHistory{Records: []model.StudentAttendance{}}

	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("student_attendance_student_id = ?", studentID)
		if from != nil {
			q = q.Where("student_attendance_date >= ?", dbtime.DateOnly(*from))
		}
		if to != nil {
			q = q.Where("student_attendance_date <= ?", dbtime.DateOnly(*to))
		}
		return q
	}

	type countRow struct {
		Status model.AttendanceStatus
		N      int64
	}
	var counts []countRow
	if err := db.WithContext(ctx).Model(&model.StudentAttendance{}).
		Scopes(scope).
		Select("student_attendance_status AS status, COUNT(*) AS n").
		Group("student_attendance_status").
		Scan(&counts).Error; err != nil {
		return out, err
	}
	for _, c := range counts {
		out.Summary.TotalDays += c.N
		switch c.Status {
		case model.AttendancePresent:
			out.Summary.PresentDays = c.N
		case model.AttendanceAbsent:
			out.Summary.AbsentDays = c.N
		case model.AttendanceLate:
			out.Summary.LateDays = c.N
		}
	}
	out.Summary.Percentage = Percentage(out.Summary.PresentDays, out.Summary.TotalDays)

	if err := db.WithContext(ctx).Scopes(scope).
		Order("student_attendance_date DESC").
		Limit(historyLimit).
		Find(&out.Records).Error; err != nil {
		return out, err
	}
	return out, nil
}

// Percentage is present/total*100 rounded to one decimal; 0 when total is 0.
func Percentage(present, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*1000) / 10
}

// ListAttendance is the paged attendance list. Teachers only see the sections
// they are class teacher of.
func ListAttendance(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, sectionID *uuid.UUID, date *time.Time, teacherID *uuid.UUID, p helper.Paging) ([]model.StudentAttendance, int64, error) {
	q := db.WithContext(ctx).Model(&model.StudentAttendance{}).
		Where("student_attendance_school_id = ?", schoolID)
	if sectionID != nil {
		q = q.Where("student_attendance_section_id = ?", *sectionID)
	}
	if date != nil {
		q = q.Where("student_attendance_date = ?", dbtime.DateOnly(*date))
	}
	if teacherID != nil {
		q = q.Where("student_attendance_section_id IN (?)",
			db.Table("sections").Select("section_id").Where("section_class_teacher_id = ?", *teacherID))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.StudentAttendance
	err := q.Order("student_attendance_date DESC, student_attendance_created_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error
	return rows, total, err
}

// ListAlerts returns the school's absence alerts, newest first.
func ListAlerts(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, q dto.AlertListQuery, p helper.Paging) ([]model.AbsentAlert, int64, error) {
	tx := db.WithContext(ctx).Model(&model.AbsentAlert{}).
		Where("absent_alert_school_id = ?", schoolID)
	if q.Status != nil {
		tx = tx.Where("absent_alert_status = ?", *q.Status)
	}
	if q.SectionID != nil {
		tx = tx.Where("absent_alert_attendance_id IN (?)",
			db.Model(&model.StudentAttendance{}).Select("student_attendance_id").Where("student_attendance_section_id = ?", *q.SectionID))
	}
	if q.From != nil {
		tx = tx.Where("absent_alert_scheduled_at >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("absent_alert_scheduled_at < ?", *q.To)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.AbsentAlert
	err := tx.Order("absent_alert_scheduled_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&rows).Error
	return rows, total, err
}
