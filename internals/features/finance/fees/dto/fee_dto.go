package dto

import (
	"github.com/google/uuid"

	"campusorbit_backend/internals/features/finance/fees/model"
)

/* ===============================
   Fee structures
=================================*/

type CreateFeeStructureRequest struct {
	FeeStructureClassID   uuid.UUID     `json:"fee_structure_class_id" validate:"required"`
	FeeStructureFeeType   model.FeeType `json:"fee_structure_fee_type" validate:"required,oneof=tuition admission exam lab library transport sports other"`
	FeeStructureName      string        `json:"fee_structure_name" validate:"required,max=120"`
	FeeStructureAmount    int64         `json:"fee_structure_amount" validate:"gte=0"`
	FeeStructureIsMonthly *bool         `json:"fee_structure_is_monthly,omitempty"`
	FeeStructureDueDay    int           `json:"fee_structure_due_day" validate:"omitempty,min=1,max=31"`
}

func (r CreateFeeStructureRequest) ToModel(schoolID uuid.UUID) model.FeeStructure {
	monthly := true
	if r.FeeStructureIsMonthly != nil {
		monthly = *r.FeeStructureIsMonthly
	}
	return model.FeeStructure{
		FeeStructureSchoolID:  schoolID,
		FeeStructureClassID:   r.FeeStructureClassID,
		FeeStructureFeeType:   r.FeeStructureFeeType,
		FeeStructureName:      r.FeeStructureName,
		FeeStructureAmount:    r.FeeStructureAmount,
		FeeStructureIsMonthly: monthly,
		FeeStructureDueDay:    r.FeeStructureDueDay,
		FeeStructureIsActive:  true,
	}
}

type UpdateFeeStructureRequest struct {
	FeeStructureName      *string `json:"fee_structure_name,omitempty" validate:"omitempty,max=120"`
	FeeStructureAmount    *int64  `json:"fee_structure_amount,omitempty" validate:"omitempty,gte=0"`
	FeeStructureIsMonthly *bool   `json:"fee_structure_is_monthly,omitempty"`
	FeeStructureDueDay    *int    `json:"fee_structure_due_day,omitempty" validate:"omitempty,min=1,max=31"`
	FeeStructureIsActive  *bool   `json:"fee_structure_is_active,omitempty"`
}

func (r UpdateFeeStructureRequest) Apply(m *model.FeeStructure) {
	if r.FeeStructureName != nil {
		m.FeeStructureName = *r.FeeStructureName
	}
	if r.FeeStructureAmount != nil {
		m.FeeStructureAmount = *r.FeeStructureAmount
	}
	if r.FeeStructureIsMonthly != nil {
		m.FeeStructureIsMonthly = *r.FeeStructureIsMonthly
	}
	if r.FeeStructureDueDay != nil {
		m.FeeStructureDueDay = *r.FeeStructureDueDay
	}
	if r.FeeStructureIsActive != nil {
		m.FeeStructureIsActive = *r.FeeStructureIsActive
	}
}

/* ===============================
   Fee records
=================================*/

type GenerateFeeRecordsRequest struct {
	ClassID             uuid.UUID `json:"class_id" validate:"required"`
	Month               int       `json:"month" validate:"required,min=1,max=12"`
	Year                int       `json:"year" validate:"required,min=2000,max=2100"`
	IncludeCarryForward bool      `json:"include_carry_forward"`
}

type GenerateFeeRecordsResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type AdjustFeeRecordRequest struct {
	FeeRecordDiscount *int64  `json:"fee_record_discount,omitempty" validate:"omitempty,gte=0"`
	FeeRecordFine     *int64  `json:"fee_record_fine,omitempty" validate:"omitempty,gte=0"`
	FeeRecordRemarks  *string `json:"fee_record_remarks,omitempty" validate:"omitempty,max=500"`
}

type WaiveFeeRecordRequest struct {
	Remarks *string `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

type FeeRecordFilter struct {
	StudentID *uuid.UUID
	ClassID   *uuid.UUID
	Month     *int
	Year      *int
	Status    *model.FeeStatus
}

/* ===============================
   Payments
=================================*/

// RecordPaymentRequest.Amount is signed so that non-positive amounts reach
// the ledger and are rejected there with a clear message.
type RecordPaymentRequest struct {
	FeeRecordID   uuid.UUID         `json:"fee_record" validate:"required"`
	Amount        int64             `json:"amount"`
	PaymentMode   model.PaymentMode `json:"payment_mode" validate:"omitempty,oneof=cash cheque online card bank_transfer"`
	PaymentDate   string            `json:"payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TransactionID *string           `json:"transaction_id,omitempty" validate:"omitempty,max=100"`
	ReceiptNumber *string           `json:"receipt_number,omitempty" validate:"omitempty,max=50"`
	Remarks       *string           `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

type PaymentResponse struct {
	Payment model.FeePayment `json:"payment"`
	Record  model.FeeRecord  `json:"fee_record"`
}

/* ===============================
   Reports
=================================*/

type PendingStudentSummary struct {
	StudentID       uuid.UUID `json:"student_id"`
	StudentName     string    `json:"student_name"`
	AdmissionNumber string    `json:"admission_number"`
	ClassName       string    `json:"class_name"`
	TotalFees       int64     `json:"total_fees"`
	TotalPaid       int64     `json:"total_paid"`
	TotalBalance    int64     `json:"total_balance"`
	PendingRecords  int64     `json:"pending_records"`
}

type Dashboard struct {
	PendingBalance      int64 `json:"pending_balance"`
	PendingRecords      int64 `json:"pending_records"`
	ThisMonthCollection int64 `json:"this_month_collection"`
	TodayCollection     int64 `json:"today_collection"`
	OverdueRecords      int64 `json:"overdue_records"`
}

type StudentFeesSummary struct {
	TotalFees    int64 `json:"total_fees"`
	TotalPaid    int64 `json:"total_paid"`
	TotalBalance int64 `json:"total_balance"`
	PendingCount int64 `json:"pending_count"`
}

type StudentFees struct {
	Summary        StudentFeesSummary `json:"summary"`
	PendingRecords []model.FeeRecord  `json:"pending_records"`
	AllRecords     []model.FeeRecord  `json:"all_records"`
}

/* ===============================
   Online checkout
=================================*/

type CheckoutRequest struct {
	FeeRecordID uuid.UUID `json:"fee_record_id" validate:"required"`
}

type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
	SnapToken   string `json:"snap_token"`
	RedirectURL string `json:"redirect_url"`
}

// MidtransNotification is the gateway's HTTP notification body.
type MidtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	SettlementTime    string `json:"settlement_time"`
}
