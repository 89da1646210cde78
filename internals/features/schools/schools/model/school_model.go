package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SchoolStatus string

const (
	SchoolStatusActive    SchoolStatus = "active"
	SchoolStatusInactive  SchoolStatus = "inactive"
	SchoolStatusSuspended SchoolStatus = "suspended"
)

func (s SchoolStatus) Valid() bool {
	switch s {
	case SchoolStatusActive, SchoolStatusInactive, SchoolStatusSuspended:
		return true
	}
	return false
}

type School struct {
	SchoolID       uuid.UUID    `json:"school_id" gorm:"column:school_id;type:uuid;primaryKey"`
	SchoolName     string       `json:"school_name" gorm:"column:school_name;type:varchar(200);not null"`
	SchoolCode     string       `json:"school_code" gorm:"column:school_code;type:varchar(40);not null;uniqueIndex:uq_schools_code"`
	SchoolStatus   SchoolStatus `json:"school_status" gorm:"column:school_status;type:varchar(20);not null;default:'active';index:idx_schools_status"`
	SchoolTimezone string       `json:"school_timezone" gorm:"column:school_timezone;type:varchar(60);not null;default:'Asia/Jakarta'"`

	SchoolEmail   *string `json:"school_email,omitempty" gorm:"column:school_email;type:varchar(200)"`
	SchoolPhone   *string `json:"school_phone,omitempty" gorm:"column:school_phone;type:varchar(40)"`
	SchoolAddress *string `json:"school_address,omitempty" gorm:"column:school_address;type:text"`

	SchoolCreatedAt time.Time `json:"school_created_at" gorm:"column:school_created_at;not null;autoCreateTime"`
	SchoolUpdatedAt time.Time `json:"school_updated_at" gorm:"column:school_updated_at;not null;autoUpdateTime"`
}

func (School) TableName() string { return "schools" }

func (s *School) BeforeCreate(tx *gorm.DB) error {
	if s.SchoolID == uuid.Nil {
		s.SchoolID = uuid.New()
	}
	return nil
}

func (s School) IsActive() bool { return s.SchoolStatus == SchoolStatusActive }
