package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPartial FeeStatus = "partial"
	FeeStatusPaid    FeeStatus = "paid"
	FeeStatusOverdue FeeStatus = "overdue"
	FeeStatusWaived  FeeStatus = "waived"
)

// OutstandingStatuses are the states whose balance is still owed.
var OutstandingStatuses = []FeeStatus{FeeStatusPending, FeeStatusPartial, FeeStatusOverdue}

// FeeRecord is one student's bill for one structure and period. Total,
// balance and status are derived; see Recompute.
type FeeRecord struct {
	FeeRecordID             uuid.UUID `json:"fee_record_id" gorm:"column:fee_record_id;type:uuid;primaryKey"`
	FeeRecordSchoolID       uuid.UUID `json:"fee_record_school_id" gorm:"column:fee_record_school_id;type:uuid;not null;index:idx_fee_records_school_status,priority:1"`
	FeeRecordStudentID      uuid.UUID `json:"fee_record_student_id" gorm:"column:fee_record_student_id;type:uuid;not null;uniqueIndex:uq_fee_records_student_structure_period,priority:1"`
	FeeRecordFeeStructureID uuid.UUID `json:"fee_record_fee_structure_id" gorm:"column:fee_record_fee_structure_id;type:uuid;not null;uniqueIndex:uq_fee_records_student_structure_period,priority:2"`
	FeeRecordMonth          int       `json:"fee_record_month" gorm:"column:fee_record_month;not null;uniqueIndex:uq_fee_records_student_structure_period,priority:3"`
	FeeRecordYear           int       `json:"fee_record_year" gorm:"column:fee_record_year;not null;uniqueIndex:uq_fee_records_student_structure_period,priority:4"`

	FeeRecordAmount       int64 `json:"fee_record_amount" gorm:"column:fee_record_amount;not null"`
	FeeRecordDiscount     int64 `json:"fee_record_discount" gorm:"column:fee_record_discount;not null"`
	FeeRecordFine         int64 `json:"fee_record_fine" gorm:"column:fee_record_fine;not null"`
	FeeRecordCarryForward int64 `json:"fee_record_carry_forward" gorm:"column:fee_record_carry_forward;not null"`
	FeeRecordTotalAmount  int64 `json:"fee_record_total_amount" gorm:"column:fee_record_total_amount;not null"`
	FeeRecordPaidAmount   int64 `json:"fee_record_paid_amount" gorm:"column:fee_record_paid_amount;not null"`
	FeeRecordBalance      int64 `json:"fee_record_balance" gorm:"column:fee_record_balance;not null"`

	FeeRecordDueDate time.Time `json:"fee_record_due_date" gorm:"column:fee_record_due_date;type:date;not null;index:idx_fee_records_due"`
	FeeRecordStatus  FeeStatus `json:"fee_record_status" gorm:"column:fee_record_status;type:varchar(20);not null;index:idx_fee_records_school_status,priority:2"`
	FeeRecordRemarks *string   `json:"fee_record_remarks,omitempty" gorm:"column:fee_record_remarks;type:text"`

	FeeRecordCreatedAt time.Time `json:"fee_record_created_at" gorm:"column:fee_record_created_at;not null;autoCreateTime"`
	FeeRecordUpdatedAt time.Time `json:"fee_record_updated_at" gorm:"column:fee_record_updated_at;not null;autoUpdateTime"`
}

func (FeeRecord) TableName() string { return "fee_records" }

func (r *FeeRecord) BeforeCreate(tx *gorm.DB) error {
	if r.FeeRecordID == uuid.Nil {
		r.FeeRecordID = uuid.New()
	}
	if r.FeeRecordStatus == "" {
		r.FeeRecordStatus = FeeStatusPending
	}
	return nil
}

// BeforeSave keeps the derived columns consistent on every Save/Create.
func (r *FeeRecord) BeforeSave(tx *gorm.DB) error {
	r.Recompute()
	return nil
}

// Recompute derives total, balance and status from the stored amounts:
//
//	total   = amount - discount + fine + carry_forward
//	balance = max(0, total - paid)
//
// A zero balance means paid; any payment with a remaining balance means
// partial; otherwise the stored status (pending/overdue) stays. Waived
// records keep their status.
func (r *FeeRecord) Recompute() {
	r.FeeRecordTotalAmount = r.FeeRecordAmount - r.FeeRecordDiscount + r.FeeRecordFine + r.FeeRecordCarryForward
	r.FeeRecordBalance = r.FeeRecordTotalAmount - r.FeeRecordPaidAmount

	if r.FeeRecordStatus == FeeStatusWaived {
		if r.FeeRecordBalance < 0 {
			r.FeeRecordBalance = 0
		}
		return
	}

	switch {
	case r.FeeRecordBalance <= 0:
		r.FeeRecordBalance = 0
		r.FeeRecordStatus = FeeStatusPaid
	case r.FeeRecordPaidAmount > 0:
		r.FeeRecordStatus = FeeStatusPartial
	case r.FeeRecordStatus == FeeStatusPaid, r.FeeRecordStatus == FeeStatusPartial, r.FeeRecordStatus == "":
		r.FeeRecordStatus = FeeStatusPending
	}
}

func (r FeeRecord) Outstanding() bool {
	for _, s := range OutstandingStatuses {
		if r.FeeRecordStatus == s {
			return true
		}
	}
	return false
}
