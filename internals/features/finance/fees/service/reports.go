package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campusorbit_backend/internals/features/finance/fees/dto"
	"campusorbit_backend/internals/features/finance/fees/model"
	helper "campusorbit_backend/internals/helpers"
	"campusorbit_backend/internals/helpers/dbtime"
)

const studentFeesRecent = 20

func applyRecordFilter(q *gorm.DB, f dto.FeeRecordFilter) *gorm.DB {
	if f.StudentID != nil {
		q = q.Where("fee_records.fee_record_student_id = ?", *f.StudentID)
	}
	if f.ClassID != nil {
		q = q.Where("fee_records.fee_record_student_id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).Table("students").Select("student_id").Where("student_class_id = ?", *f.ClassID))
	}
	if f.Month != nil {
		q = q.Where("fee_records.fee_record_month = ?", *f.Month)
	}
	if f.Year != nil {
		q = q.Where("fee_records.fee_record_year = ?", *f.Year)
	}
	if f.Status != nil {
		q = q.Where("fee_records.fee_record_status = ?", *f.Status)
	}
	return q
}

func ListRecords(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, f dto.FeeRecordFilter, p helper.Paging) ([]model.FeeRecord, int64, error) {
	q := applyRecordFilter(db.WithContext(ctx).Model(&model.FeeRecord{}).
		Where("fee_records.fee_record_school_id = ?", schoolID), f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.FeeRecord
	err := q.Order("fee_record_year DESC, fee_record_month DESC, fee_record_due_date ASC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error
	return rows, total, err
}

// PendingByStudent groups outstanding records per student.
func PendingByStudent(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, f dto.FeeRecordFilter) ([]dto.PendingStudentSummary, error) {
	type row struct {
		StudentID       uuid.UUID
		FirstName       string
		LastName        string
		AdmissionNumber string
		ClassName       string
		TotalFees       int64
		TotalPaid       int64
		TotalBalance    int64
		PendingRecords  int64
	}
	q := db.WithContext(ctx).Table("fee_records").
		Select(`students.student_id AS student_id,
			students.student_first_name AS first_name,
			students.student_last_name AS last_name,
			students.student_admission_number AS admission_number,
			classes.class_name AS class_name,
			COALESCE(SUM(fee_records.fee_record_total_amount), 0) AS total_fees,
			COALESCE(SUM(fee_records.fee_record_paid_amount), 0) AS total_paid,
			COALESCE(SUM(fee_records.fee_record_balance), 0) AS total_balance,
			COUNT(*) AS pending_records`).
		Joins("JOIN students ON students.student_id = fee_records.fee_record_student_id").
		Joins("LEFT JOIN classes ON classes.class_id = students.student_class_id").
		Where("fee_records.fee_record_school_id = ? AND fee_records.fee_record_status IN ?", schoolID, model.OutstandingStatuses)
	f.Status = nil
	q = applyRecordFilter(q, f)

	var rows []row
	if err := q.Group("students.student_id, students.student_first_name, students.student_last_name, students.student_admission_number, classes.class_name").
		Order("students.student_first_name ASC, students.student_last_name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]dto.PendingStudentSummary, 0, len(rows))
	for _, r := range rows {
		name := r.FirstName
		if r.LastName != "" {
			name += " " + r.LastName
		}
		out = append(out, dto.PendingStudentSummary{
			StudentID:       r.StudentID,
			StudentName:     name,
			AdmissionNumber: r.AdmissionNumber,
			ClassName:       r.ClassName,
			TotalFees:       r.TotalFees,
			TotalPaid:       r.TotalPaid,
			TotalBalance:    r.TotalBalance,
			PendingRecords:  r.PendingRecords,
		})
	}
	return out, nil
}

// BuildDashboard aggregates the accounts overview for the school. today is
// the school-local calendar date.
func BuildDashboard(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, today time.Time) (dto.Dashboard, error) {
	var d dto.Dashboard
	today = dbtime.DateOnly(today)
	monthStart, monthEnd := dbtime.MonthBounds(today)
	q := db.WithContext(ctx)

	var pending struct {
		Balance int64
		N       int64
	}
	if err := q.Model(&model.FeeRecord{}).
		Select("COALESCE(SUM(fee_record_balance), 0) AS balance, COUNT(*) AS n").
		Where("fee_record_school_id = ? AND fee_record_status IN ?", schoolID, model.OutstandingStatuses).
		Scan(&pending).Error; err != nil {
		return d, err
	}
	d.PendingBalance, d.PendingRecords = pending.Balance, pending.N

	if err := q.Model(&model.FeePayment{}).
		Select("COALESCE(SUM(fee_payment_amount), 0)").
		Where("fee_payment_school_id = ? AND fee_payment_date >= ? AND fee_payment_date < ?", schoolID, monthStart, monthEnd).
		Scan(&d.ThisMonthCollection).Error; err != nil {
		return d, err
	}
	if err := q.Model(&model.FeePayment{}).
		Select("COALESCE(SUM(fee_payment_amount), 0)").
		Where("fee_payment_school_id = ? AND fee_payment_date = ?", schoolID, today).
		Scan(&d.TodayCollection).Error; err != nil {
		return d, err
	}
	if err := q.Model(&model.FeeRecord{}).
		Where("fee_record_school_id = ? AND fee_record_due_date < ? AND fee_record_status IN ?", schoolID, today,
			[]model.FeeStatus{model.FeeStatusPending, model.FeeStatusPartial, model.FeeStatusOverdue}).
		Count(&d.OverdueRecords).Error; err != nil {
		return d, err
	}
	return d, nil
}

// StudentFeesOf is the student's own view: totals, outstanding records and the
// most recent records.
func StudentFeesOf(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (dto.StudentFees, error) {
	out := dto.StudentFees{PendingRecords: []model.FeeRecord{}, AllRecords: []model.FeeRecord{}}
	q := db.WithContext(ctx)

	var totals struct {
		Total   int64
		Paid    int64
		Balance int64
	}
	if err := q.Model(&model.FeeRecord{}).
		Select("COALESCE(SUM(fee_record_total_amount), 0) AS total, COALESCE(SUM(fee_record_paid_amount), 0) AS paid, COALESCE(SUM(fee_record_balance), 0) AS balance").
		Where("fee_record_student_id = ?", studentID).
		Scan(&totals).Error; err != nil {
		return out, err
	}
	out.Summary = dto.StudentFeesSummary{TotalFees: totals.Total, TotalPaid: totals.Paid, TotalBalance: totals.Balance}

	if err := q.Where("fee_record_student_id = ? AND fee_record_status IN ?", studentID, model.OutstandingStatuses).
		Order("fee_record_due_date ASC").
		Find(&out.PendingRecords).Error; err != nil {
		return out, err
	}
	out.Summary.PendingCount = int64(len(out.PendingRecords))

	if err := q.Where("fee_record_student_id = ?", studentID).
		Order("fee_record_year DESC, fee_record_month DESC").
		Limit(studentFeesRecent).
		Find(&out.AllRecords).Error; err != nil {
		return out, err
	}
	return out, nil
}
