package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusorbit_backend/internals/databases/testdb"
	"campusorbit_backend/internals/features/finance/fees/dto"
	"campusorbit_backend/internals/features/finance/fees/model"
	helper "campusorbit_backend/internals/helpers"
)

func TestReports(t *testing.T) {
	f := newFeeFixture(t)
	ana := testdb.CreateStudent(t, f.db, f.section, "Ana", "Putri")
	ben := testdb.CreateStudent(t, f.db, f.section, "Ben", "")

	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	jan := f.record(t, ana.StudentID, 1, model.FeeRecord{FeeRecordAmount: 300, FeeRecordDueDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)})
	f.record(t, ana.StudentID, 3, model.FeeRecord{FeeRecordAmount: 200, FeeRecordDueDate: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)})
	f.record(t, ben.StudentID, 2, model.FeeRecord{FeeRecordAmount: 100, FeeRecordStatus: model.FeeStatusOverdue, FeeRecordDueDate: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)})
	benMar := f.record(t, ben.StudentID, 3, model.FeeRecord{FeeRecordAmount: 100, FeeRecordDueDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)})

	_, _, err := RecordPayment(context.Background(), f.db, PaymentInput{
		SchoolID: f.schoolID, FeeRecordID: jan.FeeRecordID, Amount: 120, Date: today,
	})
	require.NoError(t, err)
	_, _, err = RecordPayment(context.Background(), f.db, PaymentInput{
		SchoolID: f.schoolID, FeeRecordID: benMar.FeeRecordID, Amount: 100, Date: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, _, err = RecordPayment(context.Background(), f.db, PaymentInput{
		SchoolID: f.schoolID, FeeRecordID: jan.FeeRecordID, Amount: 30, Date: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	t.Run("dashboard", func(t *testing.T) {
		d, err := BuildDashboard(context.Background(), f.db, f.schoolID, today)
		require.NoError(t, err)
		assert.Equal(t, dto.Dashboard{
			PendingBalance:      150 + 200 + 100,
			PendingRecords:      3,
			ThisMonthCollection: 220,
			TodayCollection:     120,
			OverdueRecords:      2,
		}, d)
	})

	t.Run("pending by student", func(t *testing.T) {
		rows, err := PendingByStudent(context.Background(), f.db, f.schoolID, dto.FeeRecordFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "Ana Putri", rows[0].StudentName)
		assert.Equal(t, "Grade 5", rows[0].ClassName)
		assert.EqualValues(t, 500, rows[0].TotalFees)
		assert.EqualValues(t, 150, rows[0].TotalPaid)
		assert.EqualValues(t, 350, rows[0].TotalBalance)
		assert.EqualValues(t, 2, rows[0].PendingRecords)

		assert.Equal(t, "Ben", rows[1].StudentName)
		assert.EqualValues(t, 100, rows[1].TotalBalance)
		assert.EqualValues(t, 1, rows[1].PendingRecords)
	})

	t.Run("list records with filter", func(t *testing.T) {
		month := 3
		rows, total, err := ListRecords(context.Background(), f.db, f.schoolID,
			dto.FeeRecordFilter{Month: &month, ClassID: &f.class.ClassID},
			helper.Paging{Page: 1, PerPage: 10, Offset: 0, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, rows, 2)

		status := model.FeeStatusPaid
		_, total, err = ListRecords(context.Background(), f.db, f.schoolID,
			dto.FeeRecordFilter{Status: &status},
			helper.Paging{Page: 1, PerPage: 10, Offset: 0, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("student fees", func(t *testing.T) {
		out, err := StudentFeesOf(context.Background(), f.db, ana.StudentID)
		require.NoError(t, err)
		assert.Equal(t, dto.StudentFeesSummary{TotalFees: 500, TotalPaid: 150, TotalBalance: 350, PendingCount: 2}, out.Summary)
		require.Len(t, out.PendingRecords, 2)
		assert.Equal(t, jan.FeeRecordID, out.PendingRecords[0].FeeRecordID)
		assert.Len(t, out.AllRecords, 2)
	})
}
