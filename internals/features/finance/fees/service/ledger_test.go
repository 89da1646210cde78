package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"campusorbit_backend/internals/databases/testdb"
	classModel "campusorbit_backend/internals/features/academics/classes/model"
	studentModel "campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/finance/fees/dto"
	"campusorbit_backend/internals/features/finance/fees/model"
	helper "campusorbit_backend/internals/helpers"
)

type feeFixture struct {
	db       *gorm.DB
	schoolID uuid.UUID
	class    classModel.Class
	section  classModel.Section
}

func newFeeFixture(t *testing.T) feeFixture {
	t.Helper()
	db := testdb.Open(t)
	school := testdb.CreateSchool(t, db, "FEE")
	class := testdb.CreateClass(t, db, school.SchoolID, "Grade 5")
	return feeFixture{
		db:       db,
		schoolID: school.SchoolID,
		class:    class,
		section:  testdb.CreateSection(t, db, class, "A"),
	}
}

func (f feeFixture) structure(t *testing.T, feeType model.FeeType, name string, amount int64, dueDay int) model.FeeStructure {
	t.Helper()
	fs := model.FeeStructure{
		FeeStructureSchoolID:  f.schoolID,
		FeeStructureClassID:   f.class.ClassID,
		FeeStructureFeeType:   feeType,
		FeeStructureName:      name,
		FeeStructureAmount:    amount,
		FeeStructureIsMonthly: true,
		FeeStructureDueDay:    dueDay,
		FeeStructureIsActive:  true,
	}
	require.NoError(t, f.db.Create(&fs).Error)
	return fs
}

func (f feeFixture) record(t *testing.T, studentID uuid.UUID, month int, r model.FeeRecord) model.FeeRecord {
	t.Helper()
	r.FeeRecordSchoolID = f.schoolID
	r.FeeRecordStudentID = studentID
	if r.FeeRecordFeeStructureID == uuid.Nil {
		r.FeeRecordFeeStructureID = uuid.New()
	}
	r.FeeRecordMonth = month
	if r.FeeRecordYear == 0 {
		r.FeeRecordYear = 2024
	}
	if r.FeeRecordDueDate.IsZero() {
		r.FeeRecordDueDate = time.Date(r.FeeRecordYear, time.Month(month), 10, 0, 0, 0, 0, time.UTC)
	}
	require.NoError(t, f.db.Create(&r).Error)
	return r
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) model.FeeRecord {
	t.Helper()
	var r model.FeeRecord
	require.NoError(t, db.Where("fee_record_id = ?", id).Take(&r).Error)
	return r
}

func countPayments(t *testing.T, db *gorm.DB, recordID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.FeePayment{}).Where("fee_payment_fee_record_id = ?", recordID).Count(&n).Error)
	return n
}

func TestRecordPayment_RejectsNonPositiveAmount(t *testing.T) {
	f := newFeeFixture(t)
	st := testdb.CreateStudent(t, f.db, f.section, "Rina", "")
	rec := f.record(t, st.StudentID, 1, model.FeeRecord{FeeRecordAmount: 500})

	for _, amount := range []int64{0, -5} {
		_, _, err := RecordPayment(context.Background(), f.db, PaymentInput{
			SchoolID: f.schoolID, FeeRecordID: rec.FeeRecordID, Amount: amount,
		})
		assert.ErrorIs(t, err, helper.ErrValidation, "amount %d", amount)
	}

	got := reload(t, f.db, rec.FeeRecordID)
	assert.EqualValues(t, 0, got.FeeRecordPaidAmount)
	assert.EqualValues(t, 500, got.FeeRecordBalance)
	assert.Equal(t, model.FeeStatusPending, got.FeeRecordStatus)
	assert.EqualValues(t, 0, countPayments(t, f.db, rec.FeeRecordID))
}

func TestRecordPayment_PaidIsSumOfPayments(t *testing.T) {
	f := newFeeFixture(t)
	st := testdb.CreateStudent(t, f.db, f.section, "Rina", "")
	rec := f.record(t, st.StudentID, 1, model.FeeRecord{
		FeeRecordAmount: 500, FeeRecordDiscount: 50, FeeRecordFine: 20, FeeRecordCarryForward: 100,
	})
	assert.EqualValues(t, 570, rec.FeeRecordTotalAmount)

	_, got, err := RecordPayment(context.Background(), f.db, PaymentInput{
		SchoolID: f.schoolID, FeeRecordID: rec.FeeRecordID, Amount: 300,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 300, got.FeeRecordPaidAmount)
	assert.EqualValues(t, 270, got.FeeRecordBalance)
	assert.Equal(t, model.FeeStatusPartial, got.FeeRecordStatus)

	pay, got, err := RecordPayment(context.Background(), f.db, PaymentInput{
		SchoolID: f.schoolID, FeeRecordID: rec.FeeRecordID, Amount: 270, Mode: model.PaymentModeCard,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentModeCard, pay.FeePaymentMode)

	stored := reload(t, f.db, rec.FeeRecordID)
	assert.EqualValues(t, 570, stored.FeeRecordPaidAmount)
	assert.EqualValues(t, 0, stored.FeeRecordBalance)
	assert.Equal(t, model.FeeStatusPaid, stored.FeeRecordStatus)
	assert.Equal(t, stored.FeeRecordPaidAmount, got.FeeRecordPaidAmount)
	assert.EqualValues(t, 2, countPayments(t, f.db, rec.FeeRecordID))
}

func TestRecordPayment_DefaultsToCash(t *testing.T) {
	f := newFeeFixture(t)
	st := testdb.CreateStudent(t, f.db, f.section, "Rina", "")
	rec := f.record(t, st.StudentID, 1, model.FeeRecord{FeeRecordAmount: 100})

	pay, _, err := RecordPayment(context.Background(), f.db, PaymentInput{
		SchoolID: f.schoolID, FeeRecordID: rec.FeeRecordID, Amount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentModeCash, pay.FeePaymentMode)
}

func TestRecordPayment_DuplicateTransaction(t *testing.T) {
	f := newFeeFixture(t)
	st := testdb.CreateStudent(t, f.db, f.section, "Rina", "")
	rec := f.record(t, st.StudentID, 1, model.FeeRecord{FeeRecordAmount: 500})
	txID := "TRX-1"

	_, _, err := RecordPayment(context.Background(), f.db, PaymentInput{
		SchoolID: f.schoolID, FeeRecordID: rec.FeeRecordID, Amount: 100, TransactionID: &txID,
	})
	require.NoError(t, err)

	_, _, err = RecordPayment(context.Background(), f.db, PaymentInput{
		SchoolID: f.schoolID, FeeRecordID: rec.FeeRecordID, Amount: 100, TransactionID: &txID,
	})
	assert.ErrorIs(t, err, helper.ErrConflict)
	assert.EqualValues(t, 100, reload(t, f.db, rec.FeeRecordID).FeeRecordPaidAmount)
}

func TestRecordPayment_ErrorCases(t *testing.T) {
	f := newFeeFixture(t)
	st := testdb.CreateStudent(t, f.db, f.section, "Rina", "")
	waived := f.record(t, st.StudentID, 1, model.FeeRecord{FeeRecordAmount: 100, FeeRecordStatus: model.FeeStatusWaived})
	open := f.record(t, st.StudentID, 2, model.FeeRecord{FeeRecordAmount: 100})

	tests := []struct {
		name string
		in   PaymentInput
		want error
	}{
		{"waived record", PaymentInput{SchoolID: f.schoolID, FeeRecordID: waived.FeeRecordID, Amount: 10}, helper.ErrValidation},
		{"unknown record", PaymentInput{SchoolID: f.schoolID, FeeRecordID: uuid.New(), Amount: 10}, helper.ErrNotFound},
		{"other school", PaymentInput{SchoolID: uuid.New(), FeeRecordID: open.FeeRecordID, Amount: 10}, helper.ErrNotFound},
		{"bad mode", PaymentInput{SchoolID: f.schoolID, FeeRecordID: open.FeeRecordID, Amount: 10, Mode: "barter"}, helper.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := RecordPayment(context.Background(), f.db, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.EqualValues(t, 0, countPayments(t, f.db, open.FeeRecordID))
}

func TestGenerateBulk_IsIdempotent(t *testing.T) {
	f := newFeeFixture(t)
	f.structure(t, model.FeeTypeTuition, "Tuition", 500, 10)
	f.structure(t, model.FeeTypeLab, "Lab", 80, 15)
	testdb.CreateStudent(t, f.db, f.section, "Ana", "")
	testdb.CreateStudent(t, f.db, f.section, "Ben", "")
	testdb.CreateStudent(t, f.db, f.section, "Gone", "", testdb.WithStatus(studentModel.StudentStatusInactive))

	in := dto.GenerateFeeRecordsRequest{ClassID: f.class.ClassID, Month: 3, Year: 2024}
	res, err := GenerateBulk(context.Background(), f.db, f.schoolID, in)
	require.NoError(t, err)
	assert.Equal(t, dto.GenerateFeeRecordsResult{Created: 4, Skipped: 0}, res)

	res, err = GenerateBulk(context.Background(), f.db, f.schoolID, in)
	require.NoError(t, err)
	assert.Equal(t, dto.GenerateFeeRecordsResult{Created: 0, Skipped: 4}, res)

	var n int64
	require.NoError(t, f.db.Model(&model.FeeRecord{}).Count(&n).Error)
	assert.EqualValues(t, 4, n)
}

func TestGenerateBulk_NoStructures(t *testing.T) {
	f := newFeeFixture(t)
	testdb.CreateStudent(t, f.db, f.section, "Ana", "")
	inactive := f.structure(t, model.FeeTypeTuition, "Old", 100, 10)
	require.NoError(t, f.db.Model(&inactive).Update("fee_structure_is_active", false).Error)

	_, err := GenerateBulk(context.Background(), f.db, f.schoolID, dto.GenerateFeeRecordsRequest{ClassID: f.class.ClassID, Month: 1, Year: 2024})
	assert.ErrorIs(t, err, helper.ErrValidation)
}

func TestGenerateBulk_DueDayIsClamped(t *testing.T) {
	f := newFeeFixture(t)
	f.structure(t, model.FeeTypeTuition, "Tuition", 100, 31)
	st := testdb.CreateStudent(t, f.db, f.section, "Ana", "")

	_, err := GenerateBulk(context.Background(), f.db, f.schoolID, dto.GenerateFeeRecordsRequest{ClassID: f.class.ClassID, Month: 2, Year: 2024})
	require.NoError(t, err)

	var rec model.FeeRecord
	require.NoError(t, f.db.Where("fee_record_student_id = ?", st.StudentID).Take(&rec).Error)
	assert.Equal(t, "2024-02-29", rec.FeeRecordDueDate.UTC().Format("2006-01-02"))
	assert.Equal(t, model.FeeStatusPending, rec.FeeRecordStatus)
	assert.EqualValues(t, 100, rec.FeeRecordBalance)
}

func TestGenerateBulk_CarryForward(t *testing.T) {
	f := newFeeFixture(t)
	tuition := f.structure(t, model.FeeTypeTuition, "Tuition", 500, 10)
	lab := f.structure(t, model.FeeTypeLab, "Lab", 80, 10)
	ana := testdb.CreateStudent(t, f.db, f.section, "Ana", "")
	ben := testdb.CreateStudent(t, f.db, f.section, "Ben", "")

	// Ana owes 200 from January and 30 from February, Ben owes nothing.
	f.record(t, ana.StudentID, 1, model.FeeRecord{FeeRecordAmount: 300, FeeRecordPaidAmount: 100})
	f.record(t, ana.StudentID, 2, model.FeeRecord{FeeRecordAmount: 30, FeeRecordStatus: model.FeeStatusOverdue})
	f.record(t, ben.StudentID, 1, model.FeeRecord{FeeRecordAmount: 300, FeeRecordPaidAmount: 300})

	in := dto.GenerateFeeRecordsRequest{ClassID: f.class.ClassID, Month: 3, Year: 2024, IncludeCarryForward: true}
	_, err := GenerateBulk(context.Background(), f.db, f.schoolID, in)
	require.NoError(t, err)

	march := func(studentID, structureID uuid.UUID) model.FeeRecord {
		var r model.FeeRecord
		require.NoError(t, f.db.Where("fee_record_student_id = ? AND fee_record_fee_structure_id = ? AND fee_record_month = 3",
			studentID, structureID).Take(&r).Error)
		return r
	}

	// lab sorts before tuition, so it carries the balance
	assert.EqualValues(t, 230, march(ana.StudentID, lab.FeeStructureID).FeeRecordCarryForward)
	assert.EqualValues(t, 310, march(ana.StudentID, lab.FeeStructureID).FeeRecordTotalAmount)
	assert.EqualValues(t, 0, march(ana.StudentID, tuition.FeeStructureID).FeeRecordCarryForward)
	assert.EqualValues(t, 0, march(ben.StudentID, lab.FeeStructureID).FeeRecordCarryForward)

	// a rerun adds nothing
	res, err := GenerateBulk(context.Background(), f.db, f.schoolID, in)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.EqualValues(t, 230, march(ana.StudentID, lab.FeeStructureID).FeeRecordCarryForward)
}

func TestGenerateBulk_CarryForwardSkipsBilledStudents(t *testing.T) {
	f := newFeeFixture(t)
	f.structure(t, model.FeeTypeTuition, "Tuition", 500, 10)
	ana := testdb.CreateStudent(t, f.db, f.section, "Ana", "")
	f.record(t, ana.StudentID, 1, model.FeeRecord{FeeRecordAmount: 100})

	in := dto.GenerateFeeRecordsRequest{ClassID: f.class.ClassID, Month: 3, Year: 2024}
	_, err := GenerateBulk(context.Background(), f.db, f.schoolID, in)
	require.NoError(t, err)

	// a structure added later is billed without carrying January again
	lab := f.structure(t, model.FeeTypeLab, "Lab", 80, 10)
	in.IncludeCarryForward = true
	res, err := GenerateBulk(context.Background(), f.db, f.schoolID, in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	var r model.FeeRecord
	require.NoError(t, f.db.Where("fee_record_fee_structure_id = ?", lab.FeeStructureID).Take(&r).Error)
	assert.EqualValues(t, 0, r.FeeRecordCarryForward)
}

func TestGenerateBulk_CarryForwardIgnoresLaterPeriods(t *testing.T) {
	f := newFeeFixture(t)
	tuition := f.structure(t, model.FeeTypeTuition, "Tuition", 500, 10)
	ana := testdb.CreateStudent(t, f.db, f.section, "Ana", "")
	f.record(t, ana.StudentID, 1, model.FeeRecord{FeeRecordAmount: 100})
	f.record(t, ana.StudentID, 5, model.FeeRecord{FeeRecordAmount: 70})

	in := dto.GenerateFeeRecordsRequest{ClassID: f.class.ClassID, Month: 3, Year: 2024, IncludeCarryForward: true}
	_, err := GenerateBulk(context.Background(), f.db, f.schoolID, in)
	require.NoError(t, err)

	var r model.FeeRecord
	require.NoError(t, f.db.Where("fee_record_fee_structure_id = ? AND fee_record_month = 3", tuition.FeeStructureID).Take(&r).Error)
	assert.EqualValues(t, 100, r.FeeRecordCarryForward)
}

func TestGenerateBulk_CarryForwardIsPointInTime(t *testing.T) {
	f := newFeeFixture(t)
	tuition := f.structure(t, model.FeeTypeTuition, "Tuition", 500, 10)
	ana := testdb.CreateStudent(t, f.db, f.section, "Ana", "")
	jan := f.record(t, ana.StudentID, 1, model.FeeRecord{FeeRecordAmount: 150})

	in := dto.GenerateFeeRecordsRequest{ClassID: f.class.ClassID, Month: 2, Year: 2024, IncludeCarryForward: true}
	_, err := GenerateBulk(context.Background(), f.db, f.schoolID, in)
	require.NoError(t, err)

	_, paidJan, err := RecordPayment(context.Background(), f.db, PaymentInput{
		SchoolID: f.schoolID, FeeRecordID: jan.FeeRecordID, Amount: 150,
	})
	require.NoError(t, err)
	assert.Equal(t, model.FeeStatusPaid, paidJan.FeeRecordStatus)

	var feb model.FeeRecord
	require.NoError(t, f.db.Where("fee_record_fee_structure_id = ? AND fee_record_month = 2", tuition.FeeStructureID).Take(&feb).Error)
	assert.EqualValues(t, 150, feb.FeeRecordCarryForward)
	assert.EqualValues(t, 650, feb.FeeRecordTotalAmount)
}

func TestAdjustRecord(t *testing.T) {
	f := newFeeFixture(t)
	st := testdb.CreateStudent(t, f.db, f.section, "Ana", "")
	rec := f.record(t, st.StudentID, 1, model.FeeRecord{FeeRecordAmount: 500})

	got, err := AdjustRecord(context.Background(), f.db, f.schoolID, rec.FeeRecordID, dto.AdjustFeeRecordRequest{
		FeeRecordDiscount: ptr[int64](50),
		FeeRecordFine:     ptr[int64](20),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 470, got.FeeRecordTotalAmount)
	assert.EqualValues(t, 470, reload(t, f.db, rec.FeeRecordID).FeeRecordBalance)

	_, err = AdjustRecord(context.Background(), f.db, f.schoolID, rec.FeeRecordID, dto.AdjustFeeRecordRequest{
		FeeRecordDiscount: ptr[int64](10_000),
	})
	assert.ErrorIs(t, err, helper.ErrValidation)
}

func TestWaive(t *testing.T) {
	f := newFeeFixture(t)
	st := testdb.CreateStudent(t, f.db, f.section, "Ana", "")
	open := f.record(t, st.StudentID, 1, model.FeeRecord{FeeRecordAmount: 500})
	paid := f.record(t, st.StudentID, 2, model.FeeRecord{FeeRecordAmount: 500, FeeRecordPaidAmount: 500})

	got, err := Waive(context.Background(), f.db, f.schoolID, open.FeeRecordID, ptr("hardship"))
	require.NoError(t, err)
	assert.Equal(t, model.FeeStatusWaived, got.FeeRecordStatus)
	assert.Equal(t, model.FeeStatusWaived, reload(t, f.db, open.FeeRecordID).FeeRecordStatus)

	_, err = Waive(context.Background(), f.db, f.schoolID, paid.FeeRecordID, nil)
	assert.ErrorIs(t, err, helper.ErrConflict)
}

func TestSweepOverdue(t *testing.T) {
	f := newFeeFixture(t)
	st := testdb.CreateStudent(t, f.db, f.section, "Ana", "")
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	pending := f.record(t, st.StudentID, 1, model.FeeRecord{FeeRecordAmount: 100, FeeRecordDueDate: due})
	partial := f.record(t, st.StudentID, 2, model.FeeRecord{FeeRecordAmount: 100, FeeRecordPaidAmount: 40, FeeRecordDueDate: due})
	paid := f.record(t, st.StudentID, 3, model.FeeRecord{FeeRecordAmount: 100, FeeRecordPaidAmount: 100, FeeRecordDueDate: due})
	future := f.record(t, st.StudentID, 4, model.FeeRecord{FeeRecordAmount: 100, FeeRecordDueDate: due.AddDate(0, 1, 0)})

	n, err := SweepOverdue(context.Background(), f.db, f.schoolID, due)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "due today is not overdue yet")

	n, err = SweepOverdue(context.Background(), f.db, f.schoolID, due.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	assert.Equal(t, model.FeeStatusOverdue, reload(t, f.db, pending.FeeRecordID).FeeRecordStatus)
	assert.Equal(t, model.FeeStatusOverdue, reload(t, f.db, partial.FeeRecordID).FeeRecordStatus)
	assert.Equal(t, model.FeeStatusPaid, reload(t, f.db, paid.FeeRecordID).FeeRecordStatus)
	assert.Equal(t, model.FeeStatusPending, reload(t, f.db, future.FeeRecordID).FeeRecordStatus)

	// a payment on an overdue record still moves it to partial
	_, got, err := RecordPayment(context.Background(), f.db, PaymentInput{
		SchoolID: f.schoolID, FeeRecordID: pending.FeeRecordID, Amount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, model.FeeStatusPartial, got.FeeRecordStatus)
}

func ptr[T any](v T) *T { return &v }
