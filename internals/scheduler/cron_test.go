package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusorbit_backend/internals/databases/testdb"
	"campusorbit_backend/internals/features/finance/fees/model"
	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
)

func TestStart_RejectsBadSchedule(t *testing.T) {
	db := testdb.Open(t)
	_, err := Start(db, Config{OverdueSchedule: "not a cron"})
	assert.Error(t, err)
}

func TestStart_NoJobs(t *testing.T) {
	db := testdb.Open(t)
	c, err := Start(db, Config{})
	require.NoError(t, err)
	assert.Empty(t, c.Entries())
	<-c.Stop().Done()
}

func TestRunOverdueSweep_UsesEachSchoolDate(t *testing.T) {
	db := testdb.Open(t)
	dueRecord := func(code, tz string) model.FeeRecord {
		school := testdb.CreateSchool(t, db, code)
		require.NoError(t, db.Model(&schoolModel.School{}).
			Where("school_id = ?", school.SchoolID).
			Update("school_timezone", tz).Error)
		class := testdb.CreateClass(t, db, school.SchoolID, "C")
		st := testdb.CreateStudent(t, db, testdb.CreateSection(t, db, class, "A"), "Sam", "")
		rec := model.FeeRecord{
			FeeRecordSchoolID:       school.SchoolID,
			FeeRecordStudentID:      st.StudentID,
			FeeRecordFeeStructureID: class.ClassID,
			FeeRecordMonth:          1,
			FeeRecordYear:           2024,
			FeeRecordAmount:         100,
			FeeRecordDueDate:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, db.Create(&rec).Error)
		return rec
	}
	jkt := dueRecord("JKT", "Asia/Jakarta")
	nyc := dueRecord("NYC", "America/New_York")

	status := func(rec model.FeeRecord) model.FeeStatus {
		var got model.FeeRecord
		require.NoError(t, db.Where("fee_record_id = ?", rec.FeeRecordID).Take(&got).Error)
		return got.FeeRecordStatus
	}

	// still the 10th everywhere
	assert.EqualValues(t, 0, RunOverdueSweep(context.Background(), db, time.Date(2024, 1, 10, 16, 0, 0, 0, time.UTC)))

	// the 11th in Jakarta, the 10th in New York
	assert.EqualValues(t, 1, RunOverdueSweep(context.Background(), db, time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC)))
	assert.Equal(t, model.FeeStatusOverdue, status(jkt))
	assert.Equal(t, model.FeeStatusPending, status(nyc))

	assert.EqualValues(t, 1, RunOverdueSweep(context.Background(), db, time.Date(2024, 1, 11, 6, 0, 0, 0, time.UTC)))
	assert.Equal(t, model.FeeStatusOverdue, status(nyc))
}
