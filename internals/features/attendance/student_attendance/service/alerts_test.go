package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"campusorbit_backend/internals/databases/testdb"
	classModel "campusorbit_backend/internals/features/academics/classes/model"
	studentModel "campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/dto"
	"campusorbit_backend/internals/features/attendance/student_attendance/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/notifier"
)

type fakeQueue struct {
	mu        sync.Mutex
	scheduled map[string]time.Time
	cancelled []string
	err       error
}

func newFakeQueue() *fakeQueue { return &fakeQueue{scheduled: map[string]time.Time{}} }

func (q *fakeQueue) Schedule(_ context.Context, id uuid.UUID, eta time.Time) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	h := "h-" + id.String()
	q.scheduled[h] = eta
	return h, nil
}

func (q *fakeQueue) Cancel(_ context.Context, h string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelled = append(q.cancelled, h)
	delete(q.scheduled, h)
	return nil
}

func (q *fakeQueue) PopDue(context.Context, time.Time, int) ([]uuid.UUID, error) { return nil, nil }

type fakeNotifier struct {
	sent []notifier.Message
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, m notifier.Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, m)
	return nil
}

type env struct {
	db      *gorm.DB
	school  uuid.UUID
	section classModel.Section
	student studentModel.Student
	queue   *fakeQueue
	notif   *fakeNotifier
	clock   time.Time
	alerts  *AlertService
	svc     *AttendanceService
}

func newEnv(t *testing.T) *env {
	db := testdb.Open(t)
	school := testdb.CreateSchool(t, db, "ATT")
	class := testdb.CreateClass(t, db, school.SchoolID, "Grade 3")
	sec := testdb.CreateSection(t, db, class, "A")
	st := testdb.CreateStudent(t, db, sec, "Nadia", "Putri", testdb.WithParent("0812000", "parent@mail.test"))
	require.NoError(t, db.Model(&studentModel.Student{}).Where("student_id = ?", st.StudentID).
		Update("student_admission_number", "ADM-77").Error)
	st.StudentAdmissionNumber = "ADM-77"

	e := &env{
		db: db, school: school.SchoolID, section: sec, student: st,
		queue: newFakeQueue(), notif: &fakeNotifier{},
		clock: time.Date(2024, 3, 4, 7, 30, 0, 0, time.UTC),
	}
	e.alerts = NewAlertService(db, e.queue, e.notif, 20*time.Minute)
	e.alerts.Now = func() time.Time { return e.clock }
	e.svc = NewAttendanceService(db, e.alerts)
	return e
}

func (e *env) mark(t *testing.T, status model.AttendanceStatus) model.StudentAttendance {
	t.Helper()
	att, _, err := e.svc.MarkOne(context.Background(), e.school, e.section.SectionID,
		time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), nil,
		MarkInput{StudentID: e.student.StudentID, Status: status})
	require.NoError(t, err)
	return e.reloadAttendance(t, att.StudentAttendanceID)
}

func (e *env) reloadAttendance(t *testing.T, id uuid.UUID) model.StudentAttendance {
	t.Helper()
	var att model.StudentAttendance
	require.NoError(t, e.db.Where("student_attendance_id = ?", id).Take(&att).Error)
	return att
}

func (e *env) alertFor(t *testing.T, attendanceID uuid.UUID) model.AbsentAlert {
	t.Helper()
	var a model.AbsentAlert
	require.NoError(t, e.db.Where("absent_alert_attendance_id = ?", attendanceID).Take(&a).Error)
	return a
}

func TestMarkAbsent_SchedulesAlert(t *testing.T) {
	e := newEnv(t)
	att := e.mark(t, model.AttendanceAbsent)

	assert.True(t, att.StudentAttendanceAlertScheduled)
	alert := e.alertFor(t, att.StudentAttendanceID)
	assert.Equal(t, model.AlertScheduled, alert.AbsentAlertStatus)
	assert.True(t, alert.AbsentAlertScheduledAt.Equal(e.clock.Add(20*time.Minute)))
	require.NotNil(t, alert.AbsentAlertParentEmail)
	assert.Equal(t, "parent@mail.test", *alert.AbsentAlertParentEmail)
	require.NotNil(t, alert.AbsentAlertQueueHandle)
	assert.Contains(t, e.queue.scheduled, *alert.AbsentAlertQueueHandle)

	// marking absent again does not create or enqueue a second alert
	e.mark(t, model.AttendanceAbsent)
	var n int64
	e.db.Model(&model.AbsentAlert{}).Count(&n)
	assert.EqualValues(t, 1, n)
	assert.Len(t, e.queue.scheduled, 1)
}

func TestCorrectionBeforeDue_CancelsAndStaysCancelled(t *testing.T) {
	e := newEnv(t)
	att := e.mark(t, model.AttendanceAbsent)
	handle := *e.alertFor(t, att.StudentAttendanceID).AbsentAlertQueueHandle

	att = e.mark(t, model.AttendancePresent)
	assert.True(t, att.StudentAttendanceAlertCancelled)
	assert.False(t, att.StudentAttendanceAlertSent)
	assert.Equal(t, model.AlertCancelled, e.alertFor(t, att.StudentAttendanceID).AbsentAlertStatus)
	assert.Equal(t, []string{handle}, e.queue.cancelled)

	// cancelled is terminal
	e.mark(t, model.AttendanceAbsent)
	alert := e.alertFor(t, att.StudentAttendanceID)
	assert.Equal(t, model.AlertCancelled, alert.AbsentAlertStatus)

	status, err := e.alerts.DeliverAlert(context.Background(), alert.AbsentAlertID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertCancelled, status)
	assert.Empty(t, e.notif.sent)
}

func TestDeliverAlert_Sends(t *testing.T) {
	e := newEnv(t)
	att := e.mark(t, model.AttendanceAbsent)
	alert := e.alertFor(t, att.StudentAttendanceID)

	e.clock = e.clock.Add(21 * time.Minute)
	status, err := e.alerts.DeliverAlert(context.Background(), alert.AbsentAlertID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertSent, status)

	want := "Dear Parent, your child Nadia Putri (Admission No: ADM-77) was marked ABSENT on 2024-03-04. Please contact the school if this is incorrect."
	require.Len(t, e.notif.sent, 1)
	assert.Equal(t, want, e.notif.sent[0].Body)
	assert.Equal(t, "0812000", e.notif.sent[0].Phone)

	alert = e.alertFor(t, att.StudentAttendanceID)
	assert.Equal(t, model.AlertSent, alert.AbsentAlertStatus)
	require.NotNil(t, alert.AbsentAlertSentAt)
	require.NotNil(t, alert.AbsentAlertMessageSent)
	assert.Equal(t, want, *alert.AbsentAlertMessageSent)

	att = e.reloadAttendance(t, att.StudentAttendanceID)
	assert.True(t, att.StudentAttendanceAlertSent)
	assert.False(t, att.StudentAttendanceAlertCancelled)

	// second delivery is a no-op
	status, err = e.alerts.DeliverAlert(context.Background(), alert.AbsentAlertID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertSent, status)
	assert.Len(t, e.notif.sent, 1)

	// a late correction leaves a sent alert alone
	e.mark(t, model.AttendancePresent)
	assert.Equal(t, model.AlertSent, e.alertFor(t, att.StudentAttendanceID).AbsentAlertStatus)
	assert.Empty(t, e.queue.cancelled)
}

func TestDeliverAlert_CancelsWhenNoLongerAbsent(t *testing.T) {
	e := newEnv(t)
	att := e.mark(t, model.AttendanceAbsent)
	alert := e.alertFor(t, att.StudentAttendanceID)

	// correction written without going through the marking service
	require.NoError(t, e.db.Model(&model.StudentAttendance{}).
		Where("student_attendance_id = ?", att.StudentAttendanceID).
		Update("student_attendance_status", model.AttendanceLate).Error)

	status, err := e.alerts.DeliverAlert(context.Background(), alert.AbsentAlertID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertCancelled, status)
	assert.Empty(t, e.notif.sent)
	assert.True(t, e.reloadAttendance(t, att.StudentAttendanceID).StudentAttendanceAlertCancelled)
}

func TestDeliverAlert_NotifierFailure(t *testing.T) {
	e := newEnv(t)
	e.notif.err = errors.New("smtp down")
	att := e.mark(t, model.AttendanceAbsent)
	alert := e.alertFor(t, att.StudentAttendanceID)

	status, err := e.alerts.DeliverAlert(context.Background(), alert.AbsentAlertID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertFailed, status)

	alert = e.alertFor(t, att.StudentAttendanceID)
	assert.Equal(t, model.AlertFailed, alert.AbsentAlertStatus)
	require.NotNil(t, alert.AbsentAlertErrorMessage)
	assert.Equal(t, "smtp down", *alert.AbsentAlertErrorMessage)
	att = e.reloadAttendance(t, att.StudentAttendanceID)
	assert.False(t, att.StudentAttendanceAlertSent)
	assert.False(t, att.StudentAttendanceAlertCancelled)
}

func TestQueueFailure_DoesNotFailMarking(t *testing.T) {
	e := newEnv(t)
	e.queue.err = errors.New("redis unreachable")

	att := e.mark(t, model.AttendanceAbsent)
	assert.Equal(t, model.AttendanceAbsent, att.StudentAttendanceStatus)

	alert := e.alertFor(t, att.StudentAttendanceID)
	assert.Equal(t, model.AlertScheduled, alert.AbsentAlertStatus)
	assert.Nil(t, alert.AbsentAlertQueueHandle)

	// the database sweep still finds it once due
	ids, err := e.alerts.DueFromDB(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	e.clock = e.clock.Add(25 * time.Minute)
	ids, err = e.alerts.DueFromDB(context.Background(), time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alert.AbsentAlertID}, ids)

	// once redis is back, a re-mark enqueues the existing alert
	e.queue.err = nil
	e.mark(t, model.AttendanceAbsent)
	alert = e.alertFor(t, att.StudentAttendanceID)
	assert.NotNil(t, alert.AbsentAlertQueueHandle)
	assert.Len(t, e.queue.scheduled, 1)
}

func TestBulkMark_CountsCreatedAndUpdated(t *testing.T) {
	e := newEnv(t)
	other := testdb.CreateStudent(t, e.db, e.section, "Omar", "Said")
	ctx := context.Background()

	req := dto.BulkMarkRequest{
		SectionID: e.section.SectionID,
		Date:      "2024-03-05",
		Attendances: []dto.BulkMarkRow{
			{StudentID: e.student.StudentID, Status: model.AttendanceAbsent},
			{StudentID: other.StudentID},
		},
	}
	res, err := e.svc.BulkMark(ctx, e.school, nil, req)
	require.NoError(t, err)
	assert.Equal(t, dto.BulkMarkResult{Created: 2, Updated: 0}, res)

	req.Attendances[1].Status = model.AttendanceLate
	res, err = e.svc.BulkMark(ctx, e.school, nil, req)
	require.NoError(t, err)
	assert.Equal(t, dto.BulkMarkResult{Created: 0, Updated: 2}, res)

	var omar model.StudentAttendance
	require.NoError(t, e.db.Where("student_attendance_student_id = ?", other.StudentID).Take(&omar).Error)
	assert.Equal(t, model.AttendanceLate, omar.StudentAttendanceStatus)

	var alerts int64
	e.db.Model(&model.AbsentAlert{}).Count(&alerts)
	assert.EqualValues(t, 1, alerts)
}

func TestBulkMark_RejectsForeignStudent(t *testing.T) {
	e := newEnv(t)
	otherSchool := testdb.CreateSchool(t, e.db, "FOR")
	otherClass := testdb.CreateClass(t, e.db, otherSchool.SchoolID, "X")
	stranger := testdb.CreateStudent(t, e.db, testdb.CreateSection(t, e.db, otherClass, "A"), "Stra", "Nger")

	_, err := e.svc.BulkMark(context.Background(), e.school, nil, dto.BulkMarkRequest{
		SectionID:   e.section.SectionID,
		Date:        "2024-03-05",
		Attendances: []dto.BulkMarkRow{{StudentID: e.student.StudentID}, {StudentID: stranger.StudentID}},
	})
	require.Error(t, err)

	var n int64
	e.db.Model(&model.StudentAttendance{}).Count(&n)
	assert.Zero(t, n)
}
