package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusorbit_backend/internals/databases/testdb"
	"campusorbit_backend/internals/features/attendance/student_attendance/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/notifier"
	"campusorbit_backend/internals/features/attendance/student_attendance/queue"
	"campusorbit_backend/internals/features/attendance/student_attendance/service"
)

type recorder struct{ bodies []string }

func (r *recorder) Send(_ context.Context, m notifier.Message) error {
	r.bodies = append(r.bodies, m.Body)
	return nil
}

func TestTick_DeliversThroughRedisAndSweep(t *testing.T) {
	db := testdb.Open(t)
	school := testdb.CreateSchool(t, db, "WRK")
	class := testdb.CreateClass(t, db, school.SchoolID, "G1")
	sec := testdb.CreateSection(t, db, class, "A")
	ana := testdb.CreateStudent(t, db, sec, "Ana", "B", testdb.WithParent("0811", "ana@p.test"))
	ben := testdb.CreateStudent(t, db, sec, "Ben", "C", testdb.WithParent("0822", "ben@p.test"))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rec := &recorder{}
	clock := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	alerts := service.NewAlertService(db, queue.NewRedisQueue(rdb, ""), rec, 20*time.Minute)
	alerts.Now = func() time.Time { return clock }
	att := service.NewAttendanceService(db, alerts)

	ctx := context.Background()
	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	_, _, err := att.MarkOne(ctx, school.SchoolID, sec.SectionID, day, nil, service.MarkInput{StudentID: ana.StudentID, Status: model.AttendanceAbsent})
	require.NoError(t, err)

	// Ben's alert never reaches redis
	mr.SetError("ERR redis unavailable")
	_, _, err = att.MarkOne(ctx, school.SchoolID, sec.SectionID, day, nil, service.MarkInput{StudentID: ben.StudentID, Status: model.AttendanceAbsent})
	require.NoError(t, err)
	mr.SetError("")

	w := New(alerts, Config{BatchSize: 10, Grace: time.Minute})

	stats := w.Tick(ctx)
	assert.Equal(t, TickStats{}, stats)

	clock = clock.Add(20 * time.Minute)
	stats = w.Tick(ctx)
	assert.Equal(t, 1, stats.Sent) // Ana via redis; Ben still inside the grace window

	clock = clock.Add(2 * time.Minute)
	stats = w.Tick(ctx)
	assert.Equal(t, 1, stats.Sent)
	assert.Len(t, rec.bodies, 2)

	stats = w.Tick(ctx)
	assert.Equal(t, TickStats{}, stats)

	var sent int64
	db.Model(&model.AbsentAlert{}).Where("absent_alert_status = ?", model.AlertSent).Count(&sent)
	assert.EqualValues(t, 2, sent)
}

func TestWorker_StartStop(t *testing.T) {
	db := testdb.Open(t)
	w := New(service.NewAlertService(db, nil, nil, 0), Config{Interval: 5 * time.Millisecond})
	w.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	w.Stop()
}
