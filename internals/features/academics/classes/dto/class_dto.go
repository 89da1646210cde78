package dto

import (
	"strings"

	"github.com/google/uuid"

	"campusorbit_backend/internals/features/academics/classes/model"
)

type CreateClassRequest struct {
	ClassName         string `json:"class_name" validate:"required,max=80"`
	ClassNumericValue int    `json:"class_numeric_value" validate:"min=0,max=100"`
}

func (r CreateClassRequest) ToModel(schoolID uuid.UUID) model.Class {
	return model.Class{
		ClassSchoolID:     schoolID,
		ClassName:         strings.TrimSpace(r.ClassName),
		ClassNumericValue: r.ClassNumericValue,
		ClassIsActive:     true,
	}
}

type UpdateClassRequest struct {
	ClassName         *string `json:"class_name,omitempty" validate:"omitempty,min=1,max=80"`
	ClassNumericValue *int    `json:"class_numeric_value,omitempty" validate:"omitempty,min=0,max=100"`
	ClassIsActive     *bool   `json:"class_is_active,omitempty"`
}

func (r UpdateClassRequest) Apply(m *model.Class) {
	if r.ClassName != nil {
		m.ClassName = strings.TrimSpace(*r.ClassName)
	}
	if r.ClassNumericValue != nil {
		m.ClassNumericValue = *r.ClassNumericValue
	}
	if r.ClassIsActive != nil {
		m.ClassIsActive = *r.ClassIsActive
	}
}

type CreateSectionRequest struct {
	SectionName           string     `json:"section_name" validate:"required,max=40"`
	SectionCapacity       *int       `json:"section_capacity,omitempty" validate:"omitempty,min=1"`
	SectionClassTeacherID *uuid.UUID `json:"section_class_teacher_id,omitempty"`
}

func (r CreateSectionRequest) ToModel(class model.Class) model.Section {
	return model.Section{
		SectionSchoolID:       class.ClassSchoolID,
		SectionClassID:        class.ClassID,
		SectionName:           strings.TrimSpace(r.SectionName),
		SectionCapacity:       r.SectionCapacity,
		SectionClassTeacherID: r.SectionClassTeacherID,
	}
}

// UpdateSectionRequest is partial. ClearClassTeacher unassigns the teacher.
type UpdateSectionRequest struct {
	SectionName           *string    `json:"section_name,omitempty" validate:"omitempty,min=1,max=40"`
	SectionCapacity       *int       `json:"section_capacity,omitempty" validate:"omitempty,min=1"`
	SectionClassTeacherID *uuid.UUID `json:"section_class_teacher_id,omitempty"`
	ClearClassTeacher     bool       `json:"clear_class_teacher,omitempty"`
}

func (r UpdateSectionRequest) Apply(m *model.Section) {
	if r.SectionName != nil {
		m.SectionName = strings.TrimSpace(*r.SectionName)
	}
	if r.SectionCapacity != nil {
		m.SectionCapacity = r.SectionCapacity
	}
	if r.ClearClassTeacher {
		m.SectionClassTeacherID = nil
	} else if r.SectionClassTeacherID != nil {
		id := *r.SectionClassTeacherID
		m.SectionClassTeacherID = &id
	}
}
