package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeeType string

const (
	FeeTypeTuition   FeeType = "tuition"
	FeeTypeAdmission FeeType = "admission"
	FeeTypeExam      FeeType = "exam"
	FeeTypeLab       FeeType = "lab"
	FeeTypeLibrary   FeeType = "library"
	FeeTypeTransport FeeType = "transport"
	FeeTypeSports    FeeType = "sports"
	FeeTypeOther     FeeType = "other"
)

func (t FeeType) Valid() bool {
	switch t {
	case FeeTypeTuition, FeeTypeAdmission, FeeTypeExam, FeeTypeLab,
		FeeTypeLibrary, FeeTypeTransport, FeeTypeSports, FeeTypeOther:
		return true
	}
	return false
}

const DefaultDueDay = 10

type FeeStructure struct {
	FeeStructureID        uuid.UUID `json:"fee_structure_id" gorm:"column:fee_structure_id;type:uuid;primaryKey"`
	FeeStructureSchoolID  uuid.UUID `json:"fee_structure_school_id" gorm:"column:fee_structure_school_id;type:uuid;not null;index:idx_fee_structures_class_active,priority:1"`
	FeeStructureClassID   uuid.UUID `json:"fee_structure_class_id" gorm:"column:fee_structure_class_id;type:uuid;not null;index:idx_fee_structures_class_active,priority:2"`
	FeeStructureFeeType   FeeType   `json:"fee_structure_fee_type" gorm:"column:fee_structure_fee_type;type:varchar(20);not null"`
	FeeStructureName      string    `json:"fee_structure_name" gorm:"column:fee_structure_name;type:varchar(120);not null"`
	FeeStructureAmount    int64     `json:"fee_structure_amount" gorm:"column:fee_structure_amount;not null"`
	FeeStructureIsMonthly bool      `json:"fee_structure_is_monthly" gorm:"column:fee_structure_is_monthly;not null"`
	FeeStructureDueDay    int       `json:"fee_structure_due_day" gorm:"column:fee_structure_due_day;not null;default:10"`
	FeeStructureIsActive  bool      `json:"fee_structure_is_active" gorm:"column:fee_structure_is_active;not null;index:idx_fee_structures_class_active,priority:3"`

	FeeStructureCreatedAt time.Time `json:"fee_structure_created_at" gorm:"column:fee_structure_created_at;not null;autoCreateTime"`
	FeeStructureUpdatedAt time.Time `json:"fee_structure_updated_at" gorm:"column:fee_structure_updated_at;not null;autoUpdateTime"`
}

func (FeeStructure) TableName() string { return "fee_structures" }

func (f *FeeStructure) BeforeCreate(tx *gorm.DB) error {
	if f.FeeStructureID == uuid.Nil {
		f.FeeStructureID = uuid.New()
	}
	if f.FeeStructureDueDay == 0 {
		f.FeeStructureDueDay = DefaultDueDay
	}
	return nil
}
