package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityLog struct {
	ActivityLogID          uuid.UUID      `json:"activity_log_id" gorm:"column:activity_log_id;type:uuid;primaryKey"`
	ActivityLogSchoolID    *uuid.UUID     `json:"activity_log_school_id,omitempty" gorm:"column:activity_log_school_id;type:uuid;index:idx_activity_logs_school_created,priority:1"`
	ActivityLogAction      string         `json:"activity_log_action" gorm:"column:activity_log_action;type:varchar(60);not null;index:idx_activity_logs_action"`
	ActivityLogDescription string         `json:"activity_log_description" gorm:"column:activity_log_description;type:text;not null"`
	ActivityLogPerformedBy *uuid.UUID     `json:"activity_log_performed_by,omitempty" gorm:"column:activity_log_performed_by;type:uuid"`
	ActivityLogDetails     datatypes.JSON `json:"activity_log_details,omitempty" gorm:"column:activity_log_details"`
	ActivityLogCreatedAt   time.Time      `json:"activity_log_created_at" gorm:"column:activity_log_created_at;not null;autoCreateTime;index:idx_activity_logs_school_created,priority:2"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ActivityLogID == uuid.Nil {
		a.ActivityLogID = uuid.New()
	}
	return nil
}
