package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"campusorbit_backend/internals/features/schools/activity_logs/model"
	helper "campusorbit_backend/internals/helpers"
)

const (
	ActionSchoolCreated           = "school_created"
	ActionFeaturesUpdated         = "features_updated"
	ActionStudentsImported        = "students_imported"
	ActionRollRecalculated        = "roll_numbers_recalculated"
	ActionAttendanceMarked        = "attendance_marked"
	ActionTeacherAttendanceMarked = "teacher_attendance_marked"
	ActionFeesGenerated           = "fees_generated"
	ActionFeePaymentRecorded      = "fee_payment_recorded"
	ActionFeeWaived               = "fee_waived"
	ActionSettlementOnClosed      = "fee_settlement_on_closed_record"
)

// Record appends an activity log row using tx, so it commits or rolls back
// together with the change it describes.
func Record(tx *gorm.DB, schoolID *uuid.UUID, action, description string, performedBy *uuid.UUID, details map[string]any) error {
	row := model.ActivityLog{
		ActivityLogSchoolID:    schoolID,
		ActivityLogAction:      action,
		ActivityLogDescription: description,
		ActivityLogPerformedBy: performedBy,
	}
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return err
		}
		row.ActivityLogDetails = datatypes.JSON(b)
	}
	return tx.Create(&row).Error
}

// RecordBestEffort logs instead of failing the caller.
func RecordBestEffort(db *gorm.DB, schoolID *uuid.UUID, action, description string, performedBy *uuid.UUID, details map[string]any) {
	if err := Record(db, schoolID, action, description, performedBy, details); err != nil {
		log.Printf("[ACTIVITY] failed to record %s: %v", action, err)
	}
}

type ListFilter struct {
	SchoolID *uuid.UUID
	Action   string
}

// List returns the newest entries first.
func List(ctx context.Context, db *gorm.DB, f ListFilter, p helper.Paging) ([]model.ActivityLog, int64, error) {
	q := db.WithContext(ctx).Model(&model.ActivityLog{})
	if f.SchoolID != nil {
		q = q.Where("activity_log_school_id = ?", *f.SchoolID)
	}
	if f.Action != "" {
		q = q.Where("activity_log_action = ?", f.Action)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ActivityLog
	err := q.Order("activity_log_created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&rows).Error
	return rows, total, err
}
