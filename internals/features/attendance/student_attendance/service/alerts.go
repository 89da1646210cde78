package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	studentModel "campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/notifier"
	"campusorbit_backend/internals/features/attendance/student_attendance/queue"
	helper "campusorbit_backend/internals/helpers"
	"campusorbit_backend/internals/helpers/dbtime"
)

const DefaultAlertDelay = 20 * time.Minute

// AlertService drives the absence-alert lifecycle:
// scheduled -> sent | cancelled | failed. Terminal states never change.
type AlertService struct {
	DB       *gorm.DB
	Queue    queue.Queue
	Notifier notifier.Notifier
	Delay    time.Duration
	Now      func() time.Time
}

func NewAlertService(db *gorm.DB, q queue.Queue, n notifier.Notifier, delay time.Duration) *AlertService {
	if q == nil {
		q = queue.NoopQueue{}
	}
	if n == nil {
		n = notifier.LogNotifier{}
	}
	if delay <= 0 {
		delay = DefaultAlertDelay
	}
	return &AlertService{DB: db, Queue: q, Notifier: n, Delay: delay, Now: time.Now}
}

func (s *AlertService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ScheduleAlert creates the alert for an absent attendance row. It is a no-op
// when the row is no longer absent or its alert was already sent or cancelled.
func (s *AlertService) ScheduleAlert(ctx context.Context, attendanceID uuid.UUID) error {
	var (
		alert   model.AbsentAlert
		enqueue bool
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var att model.StudentAttendance
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_attendance_id = ?", attendanceID).
			Take(&att).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.NotFoundf("attendance %s", attendanceID)
			}
			return err
		}
		if !att.IsAbsent() || att.StudentAttendanceAlertSent || att.StudentAttendanceAlertCancelled {
			return nil
		}

		var st studentModel.Student
		if err := tx.Where("student_id = ?", att.StudentAttendanceStudentID).Take(&st).Error; err != nil {
			return errors.Wrap(err, "load student")
		}

		alert = model.AbsentAlert{
			AbsentAlertAttendanceID: att.StudentAttendanceID,
			AbsentAlertSchoolID:     att.StudentAttendanceSchoolID,
			AbsentAlertStatus:       model.AlertScheduled,
			AbsentAlertScheduledAt:  s.now().Add(s.Delay),
			AbsentAlertParentPhone:  st.StudentParentPhone,
			AbsentAlertParentEmail:  st.StudentParentEmail,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "absent_alert_attendance_id"}},
			DoNothing: true,
		}).Create(&alert)
		if res.Error != nil {
			return errors.Wrap(res.Error, "create alert")
		}

		if res.RowsAffected == 0 {
			var existing model.AbsentAlert
			if err := tx.Where("absent_alert_attendance_id = ?", attendanceID).Take(&existing).Error; err != nil {
				return errors.Wrap(err, "load existing alert")
			}
			alert = existing
			// already queued, or finished
			if alert.AbsentAlertStatus != model.AlertScheduled || alert.AbsentAlertQueueHandle != nil {
				return nil
			}
		}
		enqueue = true

		return tx.Model(&model.StudentAttendance{}).
			Where("student_attendance_id = ?", attendanceID).
			Update("student_attendance_alert_scheduled", true).Error
	})
	if err != nil || !enqueue {
		return err
	}

	handle, err := s.Queue.Schedule(ctx, alert.AbsentAlertID, alert.AbsentAlertScheduledAt)
	if err != nil {
		return errors.Wrapf(err, "enqueue alert %s", alert.AbsentAlertID)
	}
	return s.DB.WithContext(ctx).Model(&model.AbsentAlert{}).
		Where("absent_alert_id = ?", alert.AbsentAlertID).
		Update("absent_alert_queue_handle", handle).Error
}

// CancelAlert moves a scheduled alert to cancelled. Anything else is left as is.
func (s *AlertService) CancelAlert(ctx context.Context, attendanceID uuid.UUID) error {
	var (
		handle    *string
		cancelled bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var alert model.AbsentAlert
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("absent_alert_attendance_id = ?", attendanceID).
			Take(&alert).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if alert.AbsentAlertStatus != model.AlertScheduled {
			return nil
		}
		if err := s.cancelLocked(tx, alert); err != nil {
			return err
		}
		handle, cancelled = alert.AbsentAlertQueueHandle, true
		return nil
	})
	if err != nil || !cancelled || handle == nil {
		return err
	}
	if err := s.Queue.Cancel(ctx, *handle); err != nil {
		log.Printf("[ALERT] dequeue %s: %v", *handle, err)
	}
	return nil
}

func (s *AlertService) cancelLocked(tx *gorm.DB, alert model.AbsentAlert) error {
	if err := tx.Model(&model.AbsentAlert{}).
		Where("absent_alert_id = ?", alert.AbsentAlertID).
		Update("absent_alert_status", model.AlertCancelled).Error; err != nil {
		return errors.Wrap(err, "cancel alert")
	}
	return tx.Model(&model.StudentAttendance{}).
		Where("student_attendance_id = ?", alert.AbsentAlertAttendanceID).
		Update("student_attendance_alert_cancelled", true).Error
}

// ComposeMessage renders the parent notification text.
func ComposeMessage(st studentModel.Student, date time.Time) string {
	return fmt.Sprintf(
		"Dear Parent, your child %s (Admission No: %s) was marked ABSENT on %s. Please contact the school if this is incorrect.",
		st.FullName(), st.StudentAdmissionNumber, date.Format(dbtime.DateLayout),
	)
}

// DeliverAlert sends one due alert and returns the resulting status. The alert
// row stays locked while the notifier runs, so two workers racing on the same
// alert deliver it once.
func (s *AlertService) DeliverAlert(ctx context.Context, alertID uuid.UUID) (model.AlertStatus, error) {
	var out model.AlertStatus

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var alert model.AbsentAlert
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("absent_alert_id = ?", alertID).
			Take(&alert).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.NotFoundf("alert %s", alertID)
			}
			return err
		}
		out = alert.AbsentAlertStatus
		if alert.AbsentAlertStatus != model.AlertScheduled {
			return nil
		}

		var att model.StudentAttendance
		if err := tx.Where("student_attendance_id = ?", alert.AbsentAlertAttendanceID).Take(&att).Error; err != nil {
			return errors.Wrap(err, "load attendance")
		}
		if !att.IsAbsent() {
			out = model.AlertCancelled
			return s.cancelLocked(tx, alert)
		}

		var st studentModel.Student
		if err := tx.Where("student_id = ?", att.StudentAttendanceStudentID).Take(&st).Error; err != nil {
			return errors.Wrap(err, "load student")
		}

		body := ComposeMessage(st, att.StudentAttendanceDate)
		msg := notifier.Message{
			Phone:   deref(alert.AbsentAlertParentPhone),
			Email:   deref(alert.AbsentAlertParentEmail),
			Subject: "Absence notice for " + st.FullName(),
			Body:    body,
		}

		updates := map[string]any{"absent_alert_message_sent": body}
		if sendErr := s.Notifier.Send(ctx, msg); sendErr != nil {
			out = model.AlertFailed
			updates["absent_alert_status"] = model.AlertFailed
			updates["absent_alert_error_message"] = sendErr.Error()
			log.Printf("[ALERT] delivery of %s failed: %v", alertID, sendErr)
		} else {
			out = model.AlertSent
			updates["absent_alert_status"] = model.AlertSent
			updates["absent_alert_sent_at"] = s.now()
		}

		if err := tx.Model(&model.AbsentAlert{}).
			Where("absent_alert_id = ?", alertID).
			Updates(updates).Error; err != nil {
			return errors.Wrap(err, "save alert outcome")
		}
		if out == model.AlertSent {
			return tx.Model(&model.StudentAttendance{}).
				Where("student_attendance_id = ?", att.StudentAttendanceID).
				Update("student_attendance_alert_sent", true).Error
		}
		return nil
	})
	return out, err
}

// DueFromDB lists scheduled alerts whose time has passed by at least grace.
// The worker uses it to pick up alerts the queue never saw.
func (s *AlertService) DueFromDB(ctx context.Context, grace time.Duration, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.DB.WithContext(ctx).Model(&model.AbsentAlert{}).
		Where("absent_alert_status = ? AND absent_alert_scheduled_at <= ?", model.AlertScheduled, s.now().Add(-grace)).
		Order("absent_alert_scheduled_at ASC").
		Limit(limit).
		Pluck("absent_alert_id", &ids).Error
	return ids, err
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
