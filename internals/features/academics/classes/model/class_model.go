package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Class struct {
	ClassID           uuid.UUID `json:"class_id" gorm:"column:class_id;type:uuid;primaryKey"`
	ClassSchoolID     uuid.UUID `json:"class_school_id" gorm:"column:class_school_id;type:uuid;not null;uniqueIndex:uq_classes_school_name,priority:1"`
	ClassName         string    `json:"class_name" gorm:"column:class_name;type:varchar(80);not null;uniqueIndex:uq_classes_school_name,priority:2"`
	ClassNumericValue int       `json:"class_numeric_value" gorm:"column:class_numeric_value;not null"`
	ClassIsActive     bool      `json:"class_is_active" gorm:"column:class_is_active;not null"`

	ClassCreatedAt time.Time `json:"class_created_at" gorm:"column:class_created_at;not null;autoCreateTime"`
	ClassUpdatedAt time.Time `json:"class_updated_at" gorm:"column:class_updated_at;not null;autoUpdateTime"`

	Sections []Section `json:"sections,omitempty" gorm:"foreignKey:SectionClassID;references:ClassID"`
}

func (Class) TableName() string { return "classes" }

func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ClassID == uuid.Nil {
		c.ClassID = uuid.New()
	}
	return nil
}
