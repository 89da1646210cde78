package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	studentModel "campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/finance/fees/dto"
	"campusorbit_backend/internals/features/finance/fees/model"
	"campusorbit_backend/internals/features/finance/fees/service"
	activityService "campusorbit_backend/internals/features/schools/activity_logs/service"
	helper "campusorbit_backend/internals/helpers"
	helperAuth "campusorbit_backend/internals/helpers/auth"
	"campusorbit_backend/internals/helpers/dbtime"
)

func recordFilter(c *fiber.Ctx) (dto.FeeRecordFilter, error) {
	var (
		f   dto.FeeRecordFilter
		err error
	)
	if f.StudentID, err = optUUID(c, "student_id"); err != nil {
		return f, err
	}
	if f.ClassID, err = optUUID(c, "class_id"); err != nil {
		return f, err
	}
	if f.Month, err = optInt(c, "month"); err != nil {
		return f, err
	}
	if f.Year, err = optInt(c, "year"); err != nil {
		return f, err
	}
	if v := c.Query("status"); v != "" {
		st := model.FeeStatus(v)
		f.Status = &st
	}
	return f, nil
}

// GET /fees/records
func (ctl *FeeController) ListRecords(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	f, err := recordFilter(c)
	if err != nil {
		return err
	}
	p := helper.ResolvePaging(c, 50, 500)
	rows, total, err := service.ListRecords(reqCtx(c), ctl.DB, schoolID, f, p)
	if err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "ok", rows, &pg)
}

// GET /fees/records/:id/payments
func (ctl *FeeController) ListPayments(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var rows []model.FeePayment
	if err := ctl.DB.WithContext(reqCtx(c)).
		Where("fee_payment_fee_record_id = ? AND fee_payment_school_id = ?", id, schoolID).
		Order("fee_payment_date DESC, fee_payment_created_at DESC").
		Find(&rows).Error; err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

// POST /fees/records/generate
func (ctl *FeeController) Generate(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.GenerateFeeRecordsRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	res, err := service.GenerateBulk(reqCtx(c), ctl.DB, schoolID, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	activityService.RecordBestEffort(ctl.DB, &schoolID, activityService.ActionFeesGenerated,
		fmt.Sprintf("fee records generated for %02d/%d", req.Month, req.Year), helperAuth.UserIDPtr(c),
		map[string]any{"class_id": req.ClassID, "created": res.Created, "skipped": res.Skipped})
	return helper.JsonOK(c, fmt.Sprintf("created %d, skipped %d", res.Created, res.Skipped), res)
}

// PATCH /fees/records/:id
func (ctl *FeeController) Adjust(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req dto.AdjustFeeRecordRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	rec, err := service.AdjustRecord(reqCtx(c), ctl.DB, schoolID, id, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "fee record updated", rec)
}

// POST /fees/records/:id/waive
func (ctl *FeeController) Waive(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req dto.WaiveFeeRecordRequest
	if len(c.Body()) > 0 {
		if ok, err := helper.BindAndValidate(c, &req); !ok {
			return err
		}
	}
	rec, err := service.Waive(reqCtx(c), ctl.DB, schoolID, id, req.Remarks)
	if err != nil {
		return helper.FromError(c, err)
	}
	activityService.RecordBestEffort(ctl.DB, &schoolID, activityService.ActionFeeWaived,
		"fee record waived", helperAuth.UserIDPtr(c), map[string]any{"fee_record_id": id})
	return helper.JsonUpdated(c, "fee record waived", rec)
}

// POST /fees/payments
func (ctl *FeeController) RecordPayment(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.RecordPaymentRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	date := dbtime.NowInSchool(c)
	if req.PaymentDate != "" {
		if date, err = dbtime.ParseDate(req.PaymentDate); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid payment_date")
		}
	}

	pay, rec, err := service.RecordPayment(reqCtx(c), ctl.DB, service.PaymentInput{
		SchoolID:      schoolID,
		FeeRecordID:   req.FeeRecordID,
		Amount:        req.Amount,
		Mode:          req.PaymentMode,
		Date:          date,
		TransactionID: req.TransactionID,
		ReceiptNumber: req.ReceiptNumber,
		Remarks:       req.Remarks,
		ReceivedBy:    helperAuth.UserIDPtr(c),
	})
	if err != nil {
		return helper.FromError(c, err)
	}
	activityService.RecordBestEffort(ctl.DB, &schoolID, activityService.ActionFeePaymentRecorded,
		fmt.Sprintf("payment of %d recorded", pay.FeePaymentAmount), helperAuth.UserIDPtr(c),
		map[string]any{"fee_record_id": rec.FeeRecordID, "fee_payment_id": pay.FeePaymentID})
	return helper.JsonCreated(c, "payment recorded", dto.PaymentResponse{Payment: pay, Record: rec})
}

// GET /fees/pending
func (ctl *FeeController) Pending(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	f, err := recordFilter(c)
	if err != nil {
		return err
	}
	rows, err := service.PendingByStudent(reqCtx(c), ctl.DB, schoolID, f)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

// GET /fees/dashboard
func (ctl *FeeController) Dashboard(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	today := dbtime.TodayIn(dbtime.GetSchoolLocation(c), time.Now())
	d, err := service.BuildDashboard(reqCtx(c), ctl.DB, schoolID, today)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", d)
}

/* ===============================
   Student self-service
=================================*/

func (ctl *FeeController) myStudent(c *fiber.Ctx) (studentModel.Student, error) {
	var st studentModel.Student
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return st, err
	}
	err = ctl.DB.WithContext(reqCtx(c)).Where("student_user_id = ?", userID).Take(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return st, fiber.NewError(fiber.StatusNotFound, "no student profile for this account")
	}
	return st, err
}

// GET /api/u/fees/my-fees
func (ctl *FeeController) MyFees(c *fiber.Ctx) error {
	st, err := ctl.myStudent(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	out, err := service.StudentFeesOf(reqCtx(c), ctl.DB, st.StudentID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// POST /api/u/fees/checkout
func (ctl *FeeController) MyCheckout(c *fiber.Ctx) error {
	if ctl.Checkout == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "online payment is not available")
	}
	st, err := ctl.myStudent(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var req dto.CheckoutRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	out, err := ctl.Checkout.Checkout(reqCtx(c), st.StudentSchoolID, req.FeeRecordID, &st.StudentID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "checkout created", out)
}

// POST /fees/records/:id/checkout lets staff send a payment link.
func (ctl *FeeController) StaffCheckout(c *fiber.Ctx) error {
	if ctl.Checkout == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "online payment is not available")
	}
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	out, err := ctl.Checkout.Checkout(reqCtx(c), schoolID, id, nil)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "checkout created", out)
}

/* ===============================
   Gateway webhook
=================================*/

// POST /api/public/fees/midtrans/notification
//
// Unknown orders are acknowledged with 200 so the gateway stops retrying.
func (ctl *FeeController) MidtransNotification(c *fiber.Ctx) error {
	if ctl.Checkout == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "online payment is not available")
	}
	var n dto.MidtransNotification
	if err := c.BodyParser(&n); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid notification body")
	}
	if !service.VerifySignature(n, ctl.Checkout.ServerKey) {
		return helper.JsonError(c, fiber.StatusUnauthorized, "invalid signature")
	}

	res, err := ctl.Checkout.HandleNotification(reqCtx(c), n)
	switch {
	case errors.Is(err, helper.ErrNotFound):
		return helper.JsonOK(c, "ignored", fiber.Map{"order_id": n.OrderID})
	case err != nil:
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", res)
}

