package dto

import (
	"strings"

	"campusorbit_backend/internals/features/schools/schools/model"
	userModel "campusorbit_backend/internals/features/users/users/model"
)

type AdminAccountRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

type CreateSchoolRequest struct {
	SchoolName     string  `json:"school_name" validate:"required,max=200"`
	SchoolCode     string  `json:"school_code" validate:"required,alphanum,max=40"`
	SchoolTimezone string  `json:"school_timezone" validate:"omitempty,max=60"`
	SchoolEmail    *string `json:"school_email,omitempty" validate:"omitempty,email"`
	SchoolPhone    *string `json:"school_phone,omitempty" validate:"omitempty,max=40"`
	SchoolAddress  *string `json:"school_address,omitempty"`

	Admin AdminAccountRequest `json:"admin"`
}

func (r CreateSchoolRequest) ToModel() model.School {
	tz := strings.TrimSpace(r.SchoolTimezone)
	if tz == "" {
		tz = "Asia/Jakarta"
	}
	return model.School{
		SchoolName:     strings.TrimSpace(r.SchoolName),
		SchoolCode:     strings.ToUpper(strings.TrimSpace(r.SchoolCode)),
		SchoolStatus:   model.SchoolStatusActive,
		SchoolTimezone: tz,
		SchoolEmail:    r.SchoolEmail,
		SchoolPhone:    r.SchoolPhone,
		SchoolAddress:  r.SchoolAddress,
	}
}

type UpdateSchoolRequest struct {
	SchoolName     *string `json:"school_name,omitempty" validate:"omitempty,min=1,max=200"`
	SchoolStatus   *string `json:"school_status,omitempty" validate:"omitempty,oneof=active inactive suspended"`
	SchoolTimezone *string `json:"school_timezone,omitempty" validate:"omitempty,max=60"`
	SchoolEmail    *string `json:"school_email,omitempty" validate:"omitempty,email"`
	SchoolPhone    *string `json:"school_phone,omitempty" validate:"omitempty,max=40"`
	SchoolAddress  *string `json:"school_address,omitempty"`
}

func (r UpdateSchoolRequest) Apply(m *model.School) {
	if r.SchoolName != nil {
		m.SchoolName = strings.TrimSpace(*r.SchoolName)
	}
	if r.SchoolStatus != nil {
		m.SchoolStatus = model.SchoolStatus(*r.SchoolStatus)
	}
	if r.SchoolTimezone != nil {
		m.SchoolTimezone = strings.TrimSpace(*r.SchoolTimezone)
	}
	if r.SchoolEmail != nil {
		m.SchoolEmail = r.SchoolEmail
	}
	if r.SchoolPhone != nil {
		m.SchoolPhone = r.SchoolPhone
	}
	if r.SchoolAddress != nil {
		m.SchoolAddress = r.SchoolAddress
	}
}

// UpdateFeaturesRequest is partial; nil leaves the switch as is.
type UpdateFeaturesRequest struct {
	AttendanceEnabled   *bool `json:"attendance_enabled,omitempty"`
	FeesEnabled         *bool `json:"fees_enabled,omitempty"`
	ExamsEnabled        *bool `json:"exams_enabled,omitempty"`
	StudentLoginEnabled *bool `json:"student_login_enabled,omitempty"`
	NotesEnabled        *bool `json:"notes_enabled,omitempty"`
}

func (r UpdateFeaturesRequest) Apply(t *model.SchoolFeatureToggle) map[string]any {
	changed := map[string]any{}
	set := func(dst *bool, v *bool, key string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed[key] = *v
		}
	}
	set(&t.FeatureToggleAttendanceEnabled, r.AttendanceEnabled, "attendance_enabled")
	set(&t.FeatureToggleFeesEnabled, r.FeesEnabled, "fees_enabled")
	set(&t.FeatureToggleExamsEnabled, r.ExamsEnabled, "exams_enabled")
	set(&t.FeatureToggleStudentLoginEnabled, r.StudentLoginEnabled, "student_login_enabled")
	set(&t.FeatureToggleNotesEnabled, r.NotesEnabled, "notes_enabled")
	return changed
}

type SchoolDetail struct {
	School   model.School              `json:"school"`
	Features model.SchoolFeatureToggle `json:"features"`
	Admin    *userModel.User           `json:"admin,omitempty"`
}
