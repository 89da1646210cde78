package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"campusorbit_backend/internals/features/academics/students/model"
)

type CreateStudentRequest struct {
	StudentFirstName       string     `json:"student_first_name" validate:"required,max=100"`
	StudentLastName        string     `json:"student_last_name" validate:"omitempty,max=100"`
	StudentAdmissionNumber string     `json:"student_admission_number" validate:"required,max=50"`
	StudentClassID         uuid.UUID  `json:"student_class_id" validate:"required"`
	StudentSectionID       *uuid.UUID `json:"student_section_id,omitempty"`

	StudentGender      *string    `json:"student_gender,omitempty" validate:"omitempty,oneof=male female other"`
	StudentDateOfBirth *time.Time `json:"student_date_of_birth,omitempty"`
	StudentAddress     *string    `json:"student_address,omitempty"`

	StudentParentName  *string `json:"student_parent_name,omitempty" validate:"omitempty,max=200"`
	StudentParentPhone *string `json:"student_parent_phone,omitempty" validate:"omitempty,max=40"`
	StudentParentEmail *string `json:"student_parent_email,omitempty" validate:"omitempty,email"`

	StudentAdmissionDate *time.Time `json:"student_admission_date,omitempty"`
}

func (r *CreateStudentRequest) Normalize() {
	r.StudentFirstName = strings.TrimSpace(r.StudentFirstName)
	r.StudentLastName = strings.TrimSpace(r.StudentLastName)
	r.StudentAdmissionNumber = strings.TrimSpace(r.StudentAdmissionNumber)
}

func (r CreateStudentRequest) ToModel(schoolID uuid.UUID) model.Student {
	return model.Student{
		StudentSchoolID:        schoolID,
		StudentFirstName:       r.StudentFirstName,
		StudentLastName:        r.StudentLastName,
		StudentAdmissionNumber: r.StudentAdmissionNumber,
		StudentClassID:         r.StudentClassID,
		StudentSectionID:       r.StudentSectionID,
		StudentStatus:          model.StudentStatusActive,
		StudentGender:          r.StudentGender,
		StudentDateOfBirth:     r.StudentDateOfBirth,
		StudentAddress:         r.StudentAddress,
		StudentParentName:      r.StudentParentName,
		StudentParentPhone:     r.StudentParentPhone,
		StudentParentEmail:     r.StudentParentEmail,
		StudentAdmissionDate:   r.StudentAdmissionDate,
	}
}

// UpdateStudentRequest is a partial update; nil fields are left alone.
// ClearSection moves the student out of any section.
type UpdateStudentRequest struct {
	StudentFirstName *string              `json:"student_first_name,omitempty" validate:"omitempty,min=1,max=100"`
	StudentLastName  *string              `json:"student_last_name,omitempty" validate:"omitempty,max=100"`
	StudentClassID   *uuid.UUID           `json:"student_class_id,omitempty"`
	StudentSectionID *uuid.UUID           `json:"student_section_id,omitempty"`
	ClearSection     bool                 `json:"clear_section,omitempty"`
	StudentStatus    *model.StudentStatus `json:"student_status,omitempty" validate:"omitempty,oneof=active inactive transferred graduated"`

	StudentGender      *string    `json:"student_gender,omitempty" validate:"omitempty,oneof=male female other"`
	StudentDateOfBirth *time.Time `json:"student_date_of_birth,omitempty"`
	StudentAddress     *string    `json:"student_address,omitempty"`

	StudentParentName  *string `json:"student_parent_name,omitempty" validate:"omitempty,max=200"`
	StudentParentPhone *string `json:"student_parent_phone,omitempty" validate:"omitempty,max=40"`
	StudentParentEmail *string `json:"student_parent_email,omitempty" validate:"omitempty,email"`
}

func (r UpdateStudentRequest) Apply(s *model.Student) {
	if r.StudentFirstName != nil {
		s.StudentFirstName = strings.TrimSpace(*r.StudentFirstName)
	}
	if r.StudentLastName != nil {
		s.StudentLastName = strings.TrimSpace(*r.StudentLastName)
	}
	if r.StudentClassID != nil {
		s.StudentClassID = *r.StudentClassID
	}
	if r.ClearSection {
		s.StudentSectionID = nil
	} else if r.StudentSectionID != nil {
		id := *r.StudentSectionID
		s.StudentSectionID = &id
	}
	if r.StudentStatus != nil {
		s.StudentStatus = *r.StudentStatus
	}
	if r.StudentGender != nil {
		s.StudentGender = r.StudentGender
	}
	if r.StudentDateOfBirth != nil {
		s.StudentDateOfBirth = r.StudentDateOfBirth
	}
	if r.StudentAddress != nil {
		s.StudentAddress = r.StudentAddress
	}
	if r.StudentParentName != nil {
		s.StudentParentName = r.StudentParentName
	}
	if r.StudentParentPhone != nil {
		s.StudentParentPhone = r.StudentParentPhone
	}
	if r.StudentParentEmail != nil {
		s.StudentParentEmail = r.StudentParentEmail
	}
}

type StudentResponse struct {
	model.Student
	StudentFullName string `json:"student_full_name"`
}

func ToStudentResponse(s model.Student) StudentResponse {
	return StudentResponse{Student: s, StudentFullName: s.FullName()}
}

func ToStudentResponses(list []model.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(list))
	for _, s := range list {
		out = append(out, ToStudentResponse(s))
	}
	return out
}

/* ===============================
   Batch import (rows already parsed and validated upstream)
=================================*/

type ImportStudentRow struct {
	RowNumber       int        `json:"row_number" validate:"required,min=1"`
	AdmissionNumber string     `json:"admission_number" validate:"required,max=50"`
	FirstName       string     `json:"first_name" validate:"required,max=100"`
	LastName        string     `json:"last_name" validate:"omitempty,max=100"`
	ClassName       string     `json:"class_name" validate:"required"`
	SectionName     string     `json:"section_name,omitempty"`
	Gender          *string    `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	ParentName      *string    `json:"parent_name,omitempty"`
	ParentPhone     *string    `json:"parent_phone,omitempty"`
	ParentEmail     *string    `json:"parent_email,omitempty" validate:"omitempty,email"`
	Address         *string    `json:"address,omitempty"`
}

type ImportStudentsRequest struct {
	Rows         []ImportStudentRow `json:"rows" validate:"required,min=1,max=2000,dive"`
	CreateLogins bool               `json:"create_logins"`
}

type ImportRowError struct {
	RowNumber int    `json:"row_number"`
	Error     string `json:"error"`
}

type ImportResult struct {
	SuccessCount int              `json:"success_count"`
	ErrorCount   int              `json:"error_count"`
	Errors       []ImportRowError `json:"errors"`
}

type ListStudentsQuery struct {
	ClassID   *uuid.UUID           `query:"class_id"`
	SectionID *uuid.UUID           `query:"section_id"`
	Status    *model.StudentStatus `query:"status"`
	Search    string               `query:"search"`
}
