package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Feature string

const (
	FeatureAttendance   Feature = "attendance"
	FeatureFees         Feature = "fees"
	FeatureExams        Feature = "exams"
	FeatureStudentLogin Feature = "student_login"
	FeatureNotes        Feature = "notes"
)

// SchoolFeatureToggle holds the per-school module switches.
type SchoolFeatureToggle struct {
	FeatureToggleID       uuid.UUID `json:"feature_toggle_id" gorm:"column:feature_toggle_id;type:uuid;primaryKey"`
	FeatureToggleSchoolID uuid.UUID `json:"feature_toggle_school_id" gorm:"column:feature_toggle_school_id;type:uuid;not null;uniqueIndex:uq_feature_toggles_school"`

	FeatureToggleAttendanceEnabled   bool `json:"attendance_enabled" gorm:"column:feature_toggle_attendance_enabled;not null"`
	FeatureToggleFeesEnabled         bool `json:"fees_enabled" gorm:"column:feature_toggle_fees_enabled;not null"`
	FeatureToggleExamsEnabled        bool `json:"exams_enabled" gorm:"column:feature_toggle_exams_enabled;not null"`
	FeatureToggleStudentLoginEnabled bool `json:"student_login_enabled" gorm:"column:feature_toggle_student_login_enabled;not null"`
	FeatureToggleNotesEnabled        bool `json:"notes_enabled" gorm:"column:feature_toggle_notes_enabled;not null"`

	FeatureToggleUpdatedAt time.Time `json:"feature_toggle_updated_at" gorm:"column:feature_toggle_updated_at;not null;autoUpdateTime"`
}

func (SchoolFeatureToggle) TableName() string { return "school_feature_toggles" }

func (f *SchoolFeatureToggle) BeforeCreate(tx *gorm.DB) error {
	if f.FeatureToggleID == uuid.Nil {
		f.FeatureToggleID = uuid.New()
	}
	return nil
}

// DefaultFeatureToggle enables everything except student login.
func DefaultFeatureToggle(schoolID uuid.UUID) SchoolFeatureToggle {
	return SchoolFeatureToggle{
		FeatureToggleSchoolID:            schoolID,
		FeatureToggleAttendanceEnabled:   true,
		FeatureToggleFeesEnabled:         true,
		FeatureToggleExamsEnabled:        true,
		FeatureToggleStudentLoginEnabled: false,
		FeatureToggleNotesEnabled:        true,
	}
}

func (f SchoolFeatureToggle) Enabled(feature Feature) bool {
	switch feature {
	case FeatureAttendance:
		return f.FeatureToggleAttendanceEnabled
	case FeatureFees:
		return f.FeatureToggleFeesEnabled
	case FeatureExams:
		return f.FeatureToggleExamsEnabled
	case FeatureStudentLogin:
		return f.FeatureToggleStudentLoginEnabled
	case FeatureNotes:
		return f.FeatureToggleNotesEnabled
	}
	return false
}
