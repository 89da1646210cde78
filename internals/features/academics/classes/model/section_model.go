package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Section struct {
	SectionID             uuid.UUID  `json:"section_id" gorm:"column:section_id;type:uuid;primaryKey"`
	SectionSchoolID       uuid.UUID  `json:"section_school_id" gorm:"column:section_school_id;type:uuid;not null;index:idx_sections_school"`
	SectionClassID        uuid.UUID  `json:"section_class_id" gorm:"column:section_class_id;type:uuid;not null;uniqueIndex:uq_sections_class_name,priority:1"`
	SectionName           string     `json:"section_name" gorm:"column:section_name;type:varchar(40);not null;uniqueIndex:uq_sections_class_name,priority:2"`
	SectionCapacity       *int       `json:"section_capacity,omitempty" gorm:"column:section_capacity"`
	SectionClassTeacherID *uuid.UUID `json:"section_class_teacher_id,omitempty" gorm:"column:section_class_teacher_id;type:uuid"`

	SectionCreatedAt time.Time `json:"section_created_at" gorm:"column:section_created_at;not null;autoCreateTime"`
	SectionUpdatedAt time.Time `json:"section_updated_at" gorm:"column:section_updated_at;not null;autoUpdateTime"`
}

func (Section) TableName() string { return "sections" }

func (s *Section) BeforeCreate(tx *gorm.DB) error {
	if s.SectionID == uuid.Nil {
		s.SectionID = uuid.New()
	}
	return nil
}
