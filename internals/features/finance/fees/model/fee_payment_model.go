package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeCheque       PaymentMode = "cheque"
	PaymentModeOnline       PaymentMode = "online"
	PaymentModeCard         PaymentMode = "card"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCheque, PaymentModeOnline, PaymentModeCard, PaymentModeBankTransfer:
		return true
	}
	return false
}

// FeePayment is append-only. The parent record's paid amount is always the
// sum of these rows.
type FeePayment struct {
	FeePaymentID            uuid.UUID   `json:"fee_payment_id" gorm:"column:fee_payment_id;type:uuid;primaryKey"`
	FeePaymentFeeRecordID   uuid.UUID   `json:"fee_payment_fee_record_id" gorm:"column:fee_payment_fee_record_id;type:uuid;not null;index:idx_fee_payments_record"`
	FeePaymentSchoolID      uuid.UUID   `json:"fee_payment_school_id" gorm:"column:fee_payment_school_id;type:uuid;not null;index:idx_fee_payments_school_date,priority:1"`
	FeePaymentAmount        int64       `json:"fee_payment_amount" gorm:"column:fee_payment_amount;not null"`
	FeePaymentMode          PaymentMode `json:"fee_payment_mode" gorm:"column:fee_payment_mode;type:varchar(20);not null"`
	FeePaymentTransactionID *string     `json:"fee_payment_transaction_id,omitempty" gorm:"column:fee_payment_transaction_id;type:varchar(100);uniqueIndex:uq_fee_payments_transaction"`
	FeePaymentReceiptNumber *string     `json:"fee_payment_receipt_number,omitempty" gorm:"column:fee_payment_receipt_number;type:varchar(50)"`
	FeePaymentReceivedBy    *uuid.UUID  `json:"fee_payment_received_by,omitempty" gorm:"column:fee_payment_received_by;type:uuid"`
	FeePaymentDate          time.Time   `json:"fee_payment_date" gorm:"column:fee_payment_date;type:date;not null;index:idx_fee_payments_school_date,priority:2"`
	FeePaymentRemarks       *string     `json:"fee_payment_remarks,omitempty" gorm:"column:fee_payment_remarks;type:text"`

	FeePaymentCreatedAt time.Time `json:"fee_payment_created_at" gorm:"column:fee_payment_created_at;not null;autoCreateTime"`
}

func (FeePayment) TableName() string { return "fee_payments" }

func (p *FeePayment) BeforeCreate(tx *gorm.DB) error {
	if p.FeePaymentID == uuid.Nil {
		p.FeePaymentID = uuid.New()
	}
	return nil
}
