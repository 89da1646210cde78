package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	studentModel "campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/finance/fees/dto"
	"campusorbit_backend/internals/features/finance/fees/model"
	helper "campusorbit_backend/internals/helpers"
	"campusorbit_backend/internals/helpers/dbtime"
)

type PaymentInput struct {
	SchoolID      uuid.UUID
	FeeRecordID   uuid.UUID
	Amount        int64
	Mode          model.PaymentMode
	Date          time.Time
	TransactionID *string
	ReceiptNumber *string
	Remarks       *string
	ReceivedBy    *uuid.UUID
}

func lockRecord(tx *gorm.DB, schoolID, recordID uuid.UUID) (model.FeeRecord, error) {
	var rec model.FeeRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("fee_record_id = ? AND fee_record_school_id = ?", recordID, schoolID).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, helper.NotFoundf("fee record %s", recordID)
	}
	return rec, err
}

// RecordPayment appends a payment and resets the record's paid amount to the
// sum of all its payments. Amounts <= 0 are rejected before anything is
// written.
func RecordPayment(ctx context.Context, db *gorm.DB, in PaymentInput) (model.FeePayment, model.FeeRecord, error) {
	var (
		pay model.FeePayment
		rec model.FeeRecord
	)
	if in.Amount <= 0 {
		return pay, rec, helper.Validationf("payment amount must be greater than zero")
	}
	if in.Mode == "" {
		in.Mode = model.PaymentModeCash
	}
	if !in.Mode.Valid() {
		return pay, rec, helper.Validationf("invalid payment mode %q", in.Mode)
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	if in.TransactionID != nil && *in.TransactionID == "" {
		in.TransactionID = nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = lockRecord(tx, in.SchoolID, in.FeeRecordID)
		if err != nil {
			return err
		}
		if rec.FeeRecordStatus == model.FeeStatusWaived {
			return helper.Validationf("fee record %s is waived", rec.FeeRecordID)
		}

		pay = model.FeePayment{
			FeePaymentFeeRecordID:   rec.FeeRecordID,
			FeePaymentSchoolID:      rec.FeeRecordSchoolID,
			FeePaymentAmount:        in.Amount,
			FeePaymentMode:          in.Mode,
			FeePaymentTransactionID: in.TransactionID,
			FeePaymentReceiptNumber: in.ReceiptNumber,
			FeePaymentReceivedBy:    in.ReceivedBy,
			FeePaymentDate:          dbtime.DateOnly(in.Date),
			FeePaymentRemarks:       in.Remarks,
		}
		if err := tx.Create(&pay).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return helper.Conflictf("transaction %q already recorded", *in.TransactionID)
			}
			return errors.Wrap(err, "insert payment")
		}

		var paid int64
		if err := tx.Model(&model.FeePayment{}).
			Where("fee_payment_fee_record_id = ?", rec.FeeRecordID).
			Select("COALESCE(SUM(fee_payment_amount), 0)").
			Scan(&paid).Error; err != nil {
			return errors.Wrap(err, "sum payments")
		}
		rec.FeeRecordPaidAmount = paid
		return tx.Save(&rec).Error
	})
	if err != nil {
		return model.FeePayment{}, model.FeeRecord{}, err
	}
	log.Printf("[FEES] payment %d on record %s -> paid=%d balance=%d status=%s",
		pay.FeePaymentAmount, rec.FeeRecordID, rec.FeeRecordPaidAmount, rec.FeeRecordBalance, rec.FeeRecordStatus)
	return pay, rec, nil
}

// GenerateBulk creates the period's records for every active student of the
// class and every active structure of the class. Existing records are
// skipped, so running it twice is harmless.
//
// With carry-forward, each student's outstanding balance from earlier periods
// is read once before any record is written and added to the first structure
// (by fee type, then name) of a period the student had no records for yet.
func GenerateBulk(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, in dto.GenerateFeeRecordsRequest) (dto.GenerateFeeRecordsResult, error) {
	var res dto.GenerateFeeRecordsResult
	if in.Month < 1 || in.Month > 12 {
		return res, helper.Validationf("month must be between 1 and 12")
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var structures []model.FeeStructure
		if err := tx.Where("fee_structure_school_id = ? AND fee_structure_class_id = ? AND fee_structure_is_active = ?", schoolID, in.ClassID, true).
			Order("fee_structure_fee_type ASC, fee_structure_name ASC").
			Find(&structures).Error; err != nil {
			return err
		}
		if len(structures) == 0 {
			return helper.Validationf("no fee structures found for this class")
		}

		var students []studentModel.Student
		if err := tx.Where("student_school_id = ? AND student_class_id = ? AND student_status = ?", schoolID, in.ClassID, studentModel.StudentStatusActive).
			Order("student_created_at ASC").
			Find(&students).Error; err != nil {
			return err
		}

		carry := map[uuid.UUID]int64{}
		if in.IncludeCarryForward {
			var err error
			if carry, err = carryForwardSnapshot(tx, students, in.Month, in.Year); err != nil {
				return err
			}
		}

		for _, st := range students {
			cf := carry[st.StudentID]
			for _, fs := range structures {
				rec := model.FeeRecord{
					FeeRecordSchoolID:       schoolID,
					FeeRecordStudentID:      st.StudentID,
					FeeRecordFeeStructureID: fs.FeeStructureID,
					FeeRecordMonth:          in.Month,
					FeeRecordYear:           in.Year,
					FeeRecordAmount:         fs.FeeStructureAmount,
					FeeRecordCarryForward:   cf,
					FeeRecordDueDate:        dbtime.ClampedDate(in.Year, time.Month(in.Month), fs.FeeStructureDueDay),
					FeeRecordStatus:         model.FeeStatusPending,
				}
				r := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{
						{Name: "fee_record_student_id"},
						{Name: "fee_record_fee_structure_id"},
						{Name: "fee_record_month"},
						{Name: "fee_record_year"},
					},
					DoNothing: true,
				}).Create(&rec)
				if r.Error != nil {
					return errors.Wrapf(r.Error, "create fee record for student %s", st.StudentID)
				}
				if r.RowsAffected == 0 {
					res.Skipped++
					continue
				}
				res.Created++
				cf = 0
			}
		}
		return nil
	})
	if err != nil {
		return dto.GenerateFeeRecordsResult{}, err
	}
	log.Printf("[FEES] generated %02d/%d class=%s created=%d skipped=%d", in.Month, in.Year, in.ClassID, res.Created, res.Skipped)
	return res, nil
}

// carryForwardSnapshot sums the outstanding balance of each student's records
// from periods before the target one. Students that already have records in
// the target period get nothing, so a rerun never carries twice.
func carryForwardSnapshot(tx *gorm.DB, students []studentModel.Student, month, year int) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	if len(students) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.StudentID)
	}

	type row struct {
		StudentID uuid.UUID
		Balance   int64
	}
	var rows []row
	if err := tx.Model(&model.FeeRecord{}).
		Select("fee_record_student_id AS student_id, COALESCE(SUM(fee_record_balance), 0) AS balance").
		Where("fee_record_student_id IN ? AND fee_record_status IN ?", ids, model.OutstandingStatuses).
		Where("(fee_record_year < ? OR (fee_record_year = ? AND fee_record_month < ?))", year, year, month).
		Group("fee_record_student_id").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "carry-forward snapshot")
	}
	for _, r := range rows {
		out[r.StudentID] = r.Balance
	}

	var billed []uuid.UUID
	if err := tx.Model(&model.FeeRecord{}).
		Where("fee_record_student_id IN ? AND fee_record_month = ? AND fee_record_year = ?", ids, month, year).
		Distinct("fee_record_student_id").
		Pluck("fee_record_student_id", &billed).Error; err != nil {
		return nil, err
	}
	for _, id := range billed {
		delete(out, id)
	}
	return out, nil
}

// AdjustRecord changes discount, fine or remarks; totals follow.
func AdjustRecord(ctx context.Context, db *gorm.DB, schoolID, recordID uuid.UUID, in dto.AdjustFeeRecordRequest) (model.FeeRecord, error) {
	var rec model.FeeRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockRecord(tx, schoolID, recordID); err != nil {
			return err
		}
		if in.FeeRecordDiscount != nil {
			rec.FeeRecordDiscount = *in.FeeRecordDiscount
		}
		if in.FeeRecordFine != nil {
			rec.FeeRecordFine = *in.FeeRecordFine
		}
		if in.FeeRecordRemarks != nil {
			rec.FeeRecordRemarks = in.FeeRecordRemarks
		}
		if rec.FeeRecordDiscount > rec.FeeRecordAmount+rec.FeeRecordFine+rec.FeeRecordCarryForward {
			return helper.Validationf("discount exceeds the amount due")
		}
		return tx.Save(&rec).Error
	})
	return rec, err
}

// Waive closes a record without payment. The balance is kept for audit.
func Waive(ctx context.Context, db *gorm.DB, schoolID, recordID uuid.UUID, remarks *string) (model.FeeRecord, error) {
	var rec model.FeeRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockRecord(tx, schoolID, recordID); err != nil {
			return err
		}
		if rec.FeeRecordStatus == model.FeeStatusPaid {
			return helper.Conflictf("fee record %s is already paid", recordID)
		}
		rec.FeeRecordStatus = model.FeeStatusWaived
		if remarks != nil {
			rec.FeeRecordRemarks = remarks
		}
		return tx.Save(&rec).Error
	})
	return rec, err
}

// SweepOverdue marks the school's pending and partial records past their due
// date as overdue and returns how many changed. today is the school-local
// calendar date.
func SweepOverdue(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, today time.Time) (int64, error) {
	res := db.WithContext(ctx).Session(&gorm.Session{SkipHooks: true}).
		Model(&model.FeeRecord{}).
		Where("fee_record_school_id = ? AND fee_record_due_date < ? AND fee_record_status IN ?", schoolID, dbtime.DateOnly(today),
			[]model.FeeStatus{model.FeeStatusPending, model.FeeStatusPartial}).
		Update("fee_record_status", model.FeeStatusOverdue)
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "sweep overdue for school %s", schoolID)
	}
	if res.RowsAffected > 0 {
		log.Printf("[FEES] school %s: %d record(s) now overdue", schoolID, res.RowsAffected)
	}
	return res.RowsAffected, nil
}
