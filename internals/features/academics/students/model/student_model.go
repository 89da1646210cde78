package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentStatus string

const (
	StudentStatusActive      StudentStatus = "active"
	StudentStatusInactive    StudentStatus = "inactive"
	StudentStatusTransferred StudentStatus = "transferred"
	StudentStatusGraduated   StudentStatus = "graduated"
)

func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusInactive, StudentStatusTransferred, StudentStatusGraduated:
		return true
	}
	return false
}

// Student is never hard-deleted; leaving the school is a status change.
// StudentRollNumber is derived and only meaningful while active and sectioned.
type Student struct {
	StudentID       uuid.UUID  `json:"student_id" gorm:"column:student_id;type:uuid;primaryKey"`
	StudentSchoolID uuid.UUID  `json:"student_school_id" gorm:"column:student_school_id;type:uuid;not null;uniqueIndex:uq_students_school_admission,priority:1"`
	StudentUserID   *uuid.UUID `json:"student_user_id,omitempty" gorm:"column:student_user_id;type:uuid"`

	StudentFirstName       string `json:"student_first_name" gorm:"column:student_first_name;type:varchar(100);not null"`
	StudentLastName        string `json:"student_last_name" gorm:"column:student_last_name;type:varchar(100)"`
	StudentAdmissionNumber string `json:"student_admission_number" gorm:"column:student_admission_number;type:varchar(50);not null;uniqueIndex:uq_students_school_admission,priority:2"`

	StudentClassID    uuid.UUID     `json:"student_class_id" gorm:"column:student_class_id;type:uuid;not null;index:idx_students_class"`
	StudentSectionID  *uuid.UUID    `json:"student_section_id,omitempty" gorm:"column:student_section_id;type:uuid;index:idx_students_section_status,priority:1"`
	StudentRollNumber *string       `json:"student_roll_number,omitempty" gorm:"column:student_roll_number;type:varchar(10)"`
	StudentStatus     StudentStatus `json:"student_status" gorm:"column:student_status;type:varchar(20);not null;default:'active';index:idx_students_section_status,priority:2"`

	StudentGender      *string    `json:"student_gender,omitempty" gorm:"column:student_gender;type:varchar(10)"`
	StudentDateOfBirth *time.Time `json:"student_date_of_birth,omitempty" gorm:"column:student_date_of_birth;type:date"`
	StudentAddress     *string    `json:"student_address,omitempty" gorm:"column:student_address;type:text"`

	StudentParentName  *string `json:"student_parent_name,omitempty" gorm:"column:student_parent_name;type:varchar(200)"`
	StudentParentPhone *string `json:"student_parent_phone,omitempty" gorm:"column:student_parent_phone;type:varchar(40)"`
	StudentParentEmail *string `json:"student_parent_email,omitempty" gorm:"column:student_parent_email;type:varchar(200)"`

	StudentAdmissionDate *time.Time `json:"student_admission_date,omitempty" gorm:"column:student_admission_date;type:date"`
	StudentCreatedAt     time.Time  `json:"student_created_at" gorm:"column:student_created_at;not null;autoCreateTime"`
	StudentUpdatedAt     time.Time  `json:"student_updated_at" gorm:"column:student_updated_at;not null;autoUpdateTime"`
}

func (Student) TableName() string { return "students" }

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.StudentID == uuid.Nil {
		s.StudentID = uuid.New()
	}
	if s.StudentStatus == "" {
		s.StudentStatus = StudentStatusActive
	}
	return nil
}

func (s Student) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(s.StudentFirstName) + " " + strings.TrimSpace(s.StudentLastName))
}

func (s Student) IsActive() bool { return s.StudentStatus == StudentStatusActive }
