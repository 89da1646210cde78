package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeRecord_Recompute(t *testing.T) {
	tests := []struct {
		name        string
		rec         FeeRecord
		wantTotal   int64
		wantBalance int64
		wantStatus  FeeStatus
	}{
		{
			name:        "discount fine and carry forward",
			rec:         FeeRecord{FeeRecordAmount: 500, FeeRecordDiscount: 50, FeeRecordFine: 20, FeeRecordCarryForward: 100},
			wantTotal:   570,
			wantBalance: 570,
			wantStatus:  FeeStatusPending,
		},
		{
			name:        "full payment",
			rec:         FeeRecord{FeeRecordAmount: 500, FeeRecordDiscount: 50, FeeRecordFine: 20, FeeRecordCarryForward: 100, FeeRecordPaidAmount: 570},
			wantTotal:   570,
			wantBalance: 0,
			wantStatus:  FeeStatusPaid,
		},
		{
			name:        "partial payment",
			rec:         FeeRecord{FeeRecordAmount: 500, FeeRecordDiscount: 50, FeeRecordFine: 20, FeeRecordCarryForward: 100, FeeRecordPaidAmount: 300},
			wantTotal:   570,
			wantBalance: 270,
			wantStatus:  FeeStatusPartial,
		},
		{
			name:        "overpayment clamps balance",
			rec:         FeeRecord{FeeRecordAmount: 100, FeeRecordPaidAmount: 150},
			wantTotal:   100,
			wantBalance: 0,
			wantStatus:  FeeStatusPaid,
		},
		{
			name:        "overdue stays overdue without payment",
			rec:         FeeRecord{FeeRecordAmount: 100, FeeRecordStatus: FeeStatusOverdue},
			wantTotal:   100,
			wantBalance: 100,
			wantStatus:  FeeStatusOverdue,
		},
		{
			name:        "overdue with payment becomes partial",
			rec:         FeeRecord{FeeRecordAmount: 100, FeeRecordPaidAmount: 40, FeeRecordStatus: FeeStatusOverdue},
			wantTotal:   100,
			wantBalance: 60,
			wantStatus:  FeeStatusPartial,
		},
		{
			name:        "fine raises a paid record back to pending",
			rec:         FeeRecord{FeeRecordAmount: 100, FeeRecordFine: 10, FeeRecordStatus: FeeStatusPaid},
			wantTotal:   110,
			wantBalance: 110,
			wantStatus:  FeeStatusPending,
		},
		{
			name:        "waived keeps status",
			rec:         FeeRecord{FeeRecordAmount: 100, FeeRecordPaidAmount: 20, FeeRecordStatus: FeeStatusWaived},
			wantTotal:   100,
			wantBalance: 80,
			wantStatus:  FeeStatusWaived,
		},
		{
			name:        "zero total is paid",
			rec:         FeeRecord{FeeRecordAmount: 100, FeeRecordDiscount: 100},
			wantTotal:   0,
			wantBalance: 0,
			wantStatus:  FeeStatusPaid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.rec
			r.Recompute()
			assert.Equal(t, tt.wantTotal, r.FeeRecordTotalAmount)
			assert.Equal(t, tt.wantBalance, r.FeeRecordBalance)
			assert.Equal(t, tt.wantStatus, r.FeeRecordStatus)
		})
	}
}

func TestFeeRecord_Outstanding(t *testing.T) {
	for status, want := range map[FeeStatus]bool{
		FeeStatusPending: true,
		FeeStatusPartial: true,
		FeeStatusOverdue: true,
		FeeStatusPaid:    false,
		FeeStatusWaived:  false,
	} {
		assert.Equal(t, want, FeeRecord{FeeRecordStatus: status}.Outstanding(), status)
	}
}

func TestPaymentMode_Valid(t *testing.T) {
	assert.True(t, PaymentModeBankTransfer.Valid())
	assert.False(t, PaymentMode("barter").Valid())
}
