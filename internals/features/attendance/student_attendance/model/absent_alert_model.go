package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertStatus string

const (
	AlertScheduled AlertStatus = "scheduled"
	AlertSent      AlertStatus = "sent"
	AlertCancelled AlertStatus = "cancelled"
	AlertFailed    AlertStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s AlertStatus) Terminal() bool {
	return s == AlertSent || s == AlertCancelled || s == AlertFailed
}

// AbsentAlert is one-to-one with a StudentAttendance row. Parent contacts are
// a snapshot taken when the alert is created.
type AbsentAlert struct {
	AbsentAlertID           uuid.UUID   `json:"absent_alert_id" gorm:"column:absent_alert_id;type:uuid;primaryKey"`
	AbsentAlertAttendanceID uuid.UUID   `json:"absent_alert_attendance_id" gorm:"column:absent_alert_attendance_id;type:uuid;not null;uniqueIndex:uq_absent_alerts_attendance"`
	AbsentAlertSchoolID     uuid.UUID   `json:"absent_alert_school_id" gorm:"column:absent_alert_school_id;type:uuid;not null"`
	AbsentAlertStatus       AlertStatus `json:"absent_alert_status" gorm:"column:absent_alert_status;type:varchar(20);not null;index:idx_absent_alerts_status_scheduled,priority:1"`
	AbsentAlertScheduledAt  time.Time   `json:"absent_alert_scheduled_at" gorm:"column:absent_alert_scheduled_at;not null;index:idx_absent_alerts_status_scheduled,priority:2"`
	AbsentAlertSentAt       *time.Time  `json:"absent_alert_sent_at,omitempty" gorm:"column:absent_alert_sent_at"`

	AbsentAlertParentPhone  *string `json:"absent_alert_parent_phone,omitempty" gorm:"column:absent_alert_parent_phone;type:varchar(40)"`
	AbsentAlertParentEmail  *string `json:"absent_alert_parent_email,omitempty" gorm:"column:absent_alert_parent_email;type:varchar(200)"`
	AbsentAlertMessageSent  *string `json:"absent_alert_message_sent,omitempty" gorm:"column:absent_alert_message_sent;type:text"`
	AbsentAlertErrorMessage *string `json:"absent_alert_error_message,omitempty" gorm:"column:absent_alert_error_message;type:text"`
	AbsentAlertQueueHandle  *string `json:"-" gorm:"column:absent_alert_queue_handle;type:varchar(80)"`

	AbsentAlertCreatedAt time.Time `json:"absent_alert_created_at" gorm:"column:absent_alert_created_at;not null;autoCreateTime"`
	AbsentAlertUpdatedAt time.Time `json:"absent_alert_updated_at" gorm:"column:absent_alert_updated_at;not null;autoUpdateTime"`
}

func (AbsentAlert) TableName() string { return "absent_alerts" }

func (a *AbsentAlert) BeforeCreate(tx *gorm.DB) error {
	if a.AbsentAlertID == uuid.Nil {
		a.AbsentAlertID = uuid.New()
	}
	return nil
}
