package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckoutStatus string

const (
	CheckoutPending  CheckoutStatus = "pending"
	CheckoutPaid     CheckoutStatus = "paid"
	CheckoutExpired  CheckoutStatus = "expired"
	CheckoutCanceled CheckoutStatus = "canceled"
)

// FeeCheckout is an online payment session opened through the gateway.
type FeeCheckout struct {
	FeeCheckoutID          uuid.UUID      `json:"fee_checkout_id" gorm:"column:fee_checkout_id;type:uuid;primaryKey"`
	FeeCheckoutSchoolID    uuid.UUID      `json:"fee_checkout_school_id" gorm:"column:fee_checkout_school_id;type:uuid;not null"`
	FeeCheckoutFeeRecordID uuid.UUID      `json:"fee_checkout_fee_record_id" gorm:"column:fee_checkout_fee_record_id;type:uuid;not null;index:idx_fee_checkouts_record"`
	FeeCheckoutOrderID     string         `json:"fee_checkout_order_id" gorm:"column:fee_checkout_order_id;type:varchar(80);not null;uniqueIndex:uq_fee_checkouts_order"`
	FeeCheckoutGrossAmount int64          `json:"fee_checkout_gross_amount" gorm:"column:fee_checkout_gross_amount;not null"`
	FeeCheckoutSnapToken   *string        `json:"fee_checkout_snap_token,omitempty" gorm:"column:fee_checkout_snap_token;type:varchar(120)"`
	FeeCheckoutRedirectURL *string        `json:"fee_checkout_redirect_url,omitempty" gorm:"column:fee_checkout_redirect_url;type:text"`
	FeeCheckoutStatus      CheckoutStatus `json:"fee_checkout_status" gorm:"column:fee_checkout_status;type:varchar(20);not null"`
	FeeCheckoutPaidAt      *time.Time     `json:"fee_checkout_paid_at,omitempty" gorm:"column:fee_checkout_paid_at"`

	FeeCheckoutCreatedAt time.Time `json:"fee_checkout_created_at" gorm:"column:fee_checkout_created_at;not null;autoCreateTime"`
	FeeCheckoutUpdatedAt time.Time `json:"fee_checkout_updated_at" gorm:"column:fee_checkout_updated_at;not null;autoUpdateTime"`
}

func (FeeCheckout) TableName() string { return "fee_checkouts" }

func (f *FeeCheckout) BeforeCreate(tx *gorm.DB) error {
	if f.FeeCheckoutID == uuid.Nil {
		f.FeeCheckoutID = uuid.New()
	}
	if f.FeeCheckoutStatus == "" {
		f.FeeCheckoutStatus = CheckoutPending
	}
	return nil
}
