package service

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	studentModel "campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/finance/fees/dto"
	"campusorbit_backend/internals/features/finance/fees/model"
	activityService "campusorbit_backend/internals/features/schools/activity_logs/service"
	helper "campusorbit_backend/internals/helpers"
)

/* =========================================================
   Gateway
========================================================= */

type CustomerInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type SnapOrder struct {
	OrderID     string
	GrossAmount int64
	ItemName    string
	Customer    CustomerInput
}

// Gateway opens a hosted payment page for an order.
type Gateway interface {
	CreateSnap(order SnapOrder) (token, redirectURL string, err error)
}

type MidtransGateway struct {
	client snap.Client
}

// NewMidtransGateway targets Production when useProduction is true, Sandbox
// otherwise.
func NewMidtransGateway(serverKey string, useProduction bool) *MidtransGateway {
	g := &MidtransGateway{}
	if useProduction {
		g.client.New(serverKey, midtrans.Production)
	} else {
		g.client.New(serverKey, midtrans.Sandbox)
	}
	return g
}

func (g *MidtransGateway) CreateSnap(o SnapOrder) (string, string, error) {
	if o.GrossAmount <= 0 {
		return "", "", errors.New("invalid gross amount")
	}
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  o.OrderID,
			GrossAmt: o.GrossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: o.Customer.FirstName,
			LName: o.Customer.LastName,
			Email: o.Customer.Email,
			Phone: o.Customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       o.OrderID,
				Price:    o.GrossAmount,
				Qty:      1,
				Name:     truncate(o.ItemName, 50),
				Category: "FEES",
			},
		},
	}

	resp, err := g.client.CreateTransaction(req)
	if err != nil {
		return "", "", err
	}
	return resp.Token, resp.RedirectURL, nil
}

/* =========================================================
   Checkout
========================================================= */

type CheckoutService struct {
	DB        *gorm.DB
	Gateway   Gateway
	ServerKey string
	Now       func() time.Time
}

func (s *CheckoutService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func newOrderID(recordID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("FEE-%s-%d", strings.ToUpper(recordID.String()[:8]), at.UnixNano()/int64(time.Millisecond))
}

// Checkout opens a gateway session for the record's current balance.
// studentID, when set, restricts the record to that student.
func (s *CheckoutService) Checkout(ctx context.Context, schoolID, recordID uuid.UUID, studentID *uuid.UUID) (dto.CheckoutResponse, error) {
	var out dto.CheckoutResponse

	var rec model.FeeRecord
	q := s.DB.WithContext(ctx).Where("fee_record_id = ? AND fee_record_school_id = ?", recordID, schoolID)
	if studentID != nil {
		q = q.Where("fee_record_student_id = ?", *studentID)
	}
	if err := q.Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, helper.NotFoundf("fee record %s", recordID)
		}
		return out, err
	}
	if !rec.Outstanding() || rec.FeeRecordBalance <= 0 {
		return out, helper.Validationf("fee record %s has nothing to pay", recordID)
	}

	var st studentModel.Student
	if err := s.DB.WithContext(ctx).Where("student_id = ?", rec.FeeRecordStudentID).Take(&st).Error; err != nil {
		return out, errors.Wrap(err, "load student")
	}
	var fs model.FeeStructure
	itemName := "School fee"
	if err := s.DB.WithContext(ctx).Where("fee_structure_id = ?", rec.FeeRecordFeeStructureID).Take(&fs).Error; err == nil {
		itemName = fmt.Sprintf("%s %02d/%d", fs.FeeStructureName, rec.FeeRecordMonth, rec.FeeRecordYear)
	}

	co := model.FeeCheckout{
		FeeCheckoutSchoolID:    schoolID,
		FeeCheckoutFeeRecordID: rec.FeeRecordID,
		FeeCheckoutOrderID:     newOrderID(rec.FeeRecordID, s.now()),
		FeeCheckoutGrossAmount: rec.FeeRecordBalance,
		FeeCheckoutStatus:      model.CheckoutPending,
	}
	token, redirect, err := s.Gateway.CreateSnap(SnapOrder{
		OrderID:     co.FeeCheckoutOrderID,
		GrossAmount: co.FeeCheckoutGrossAmount,
		ItemName:    itemName,
		Customer: CustomerInput{
			FirstName: st.StudentFirstName,
			LastName:  st.StudentLastName,
			Email:     deref(st.StudentParentEmail),
			Phone:     deref(st.StudentParentPhone),
		},
	})
	if err != nil {
		return out, errors.Wrap(err, "create snap transaction")
	}
	co.FeeCheckoutSnapToken = &token
	co.FeeCheckoutRedirectURL = &redirect

	if err := s.DB.WithContext(ctx).Create(&co).Error; err != nil {
		return out, errors.Wrap(err, "save checkout")
	}
	return dto.CheckoutResponse{
		OrderID:     co.FeeCheckoutOrderID,
		GrossAmount: co.FeeCheckoutGrossAmount,
		SnapToken:   token,
		RedirectURL: redirect,
	}, nil
}

/* =========================================================
   Notification
========================================================= */

// VerifySignature checks SHA512(order_id + status_code + gross_amount + server key).
func VerifySignature(n dto.MidtransNotification, serverKey string) bool {
	want := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if want == "" {
		return false
	}
	return sha512sum(n.OrderID+n.StatusCode+n.GrossAmount+serverKey) == want
}

func sha512sum(s string) string {
	h := sha512.Sum512([]byte(s))
	return hex.EncodeToString(h[:])
}

type NotificationResult struct {
	OrderID        string               `json:"order_id"`
	CheckoutStatus model.CheckoutStatus `json:"checkout_status"`
	PaymentID      *uuid.UUID           `json:"payment_id,omitempty"`
	Duplicate      bool                 `json:"duplicate,omitempty"`
	Unapplied      bool                 `json:"unapplied,omitempty"`
}

// HandleNotification applies a verified gateway notification. A settled
// order is recorded as an online payment whose transaction id is the order
// id, so repeated notifications never pay twice.
func (s *CheckoutService) HandleNotification(ctx context.Context, n dto.MidtransNotification) (NotificationResult, error) {
	res := NotificationResult{OrderID: n.OrderID}

	var co model.FeeCheckout
	if err := s.DB.WithContext(ctx).Where("fee_checkout_order_id = ?", n.OrderID).Take(&co).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res, helper.NotFoundf("checkout for order %s", n.OrderID)
		}
		return res, err
	}
	res.CheckoutStatus = co.FeeCheckoutStatus

	status := strings.ToLower(n.TransactionStatus)
	fraud := strings.ToLower(n.FraudStatus)
	switch {
	case status == "settlement", status == "capture" && (fraud == "" || fraud == "accept"):
		amount := co.FeeCheckoutGrossAmount
		if v, err := strconv.ParseFloat(n.GrossAmount, 64); err == nil && v > 0 {
			amount = int64(v + 0.5)
		}
		orderID := n.OrderID
		remarks := "midtrans " + n.PaymentType
		pay, _, err := RecordPayment(ctx, s.DB, PaymentInput{
			SchoolID:      co.FeeCheckoutSchoolID,
			FeeRecordID:   co.FeeCheckoutFeeRecordID,
			Amount:        amount,
			Mode:          model.PaymentModeOnline,
			Date:          s.now(),
			TransactionID: &orderID,
			Remarks:       &remarks,
		})
		switch {
		case errors.Is(err, helper.ErrConflict):
			res.Duplicate = true
		case errors.Is(err, helper.ErrValidation) && s.recordWaived(ctx, co.FeeCheckoutFeeRecordID):
			// captured funds close the checkout; the trace goes to the activity log
			res.Unapplied = true
			log.Printf("[FEES] order %s settled on waived record %s, payment not applied", n.OrderID, co.FeeCheckoutFeeRecordID)
			activityService.RecordBestEffort(s.DB.WithContext(ctx), &co.FeeCheckoutSchoolID,
				activityService.ActionSettlementOnClosed,
				"Online payment settled for a waived fee record",
				nil,
				map[string]any{
					"order_id":       n.OrderID,
					"fee_record_id":  co.FeeCheckoutFeeRecordID,
					"gross_amount":   amount,
					"payment_type":   n.PaymentType,
					"transaction_id": n.TransactionID,
				})
		case err != nil:
			return res, err
		default:
			res.PaymentID = &pay.FeePaymentID
		}
		now := s.now()
		if err := s.setCheckoutStatus(ctx, co.FeeCheckoutID, model.CheckoutPaid, &now); err != nil {
			return res, err
		}
		res.CheckoutStatus = model.CheckoutPaid

	case status == "expire":
		if err := s.setCheckoutStatus(ctx, co.FeeCheckoutID, model.CheckoutExpired, nil); err != nil {
			return res, err
		}
		res.CheckoutStatus = model.CheckoutExpired

	case status == "cancel", status == "deny", status == "failure", status == "capture" && fraud == "deny":
		if err := s.setCheckoutStatus(ctx, co.FeeCheckoutID, model.CheckoutCanceled, nil); err != nil {
			return res, err
		}
		res.CheckoutStatus = model.CheckoutCanceled

	default:
		log.Printf("[FEES] midtrans %s for order %s ignored", n.TransactionStatus, n.OrderID)
	}
	return res, nil
}

func (s *CheckoutService) recordWaived(ctx context.Context, recordID uuid.UUID) bool {
	var rec model.FeeRecord
	err := s.DB.WithContext(ctx).Select("fee_record_status").
		Where("fee_record_id = ?", recordID).
		Take(&rec).Error
	return err == nil && rec.FeeRecordStatus == model.FeeStatusWaived
}

// setCheckoutStatus never moves a paid checkout back.
func (s *CheckoutService) setCheckoutStatus(ctx context.Context, id uuid.UUID, status model.CheckoutStatus, paidAt *time.Time) error {
	updates := map[string]any{"fee_checkout_status": status}
	if paidAt != nil {
		updates["fee_checkout_paid_at"] = *paidAt
	}
	return s.DB.WithContext(ctx).Model(&model.FeeCheckout{}).
		Where("fee_checkout_id = ? AND fee_checkout_status <> ?", id, model.CheckoutPaid).
		Updates(updates).Error
}

// truncate keeps at most n runes.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
