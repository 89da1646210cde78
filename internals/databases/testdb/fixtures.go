package testdb

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	classModel "campusorbit_backend/internals/features/academics/classes/model"
	studentModel "campusorbit_backend/internals/features/academics/students/model"
	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
)

func CreateSchool(t *testing.T, db *gorm.DB, code string) schoolModel.School {
	t.Helper()
	s := schoolModel.School{
		SchoolName:     "School " + code,
		SchoolCode:     code,
		SchoolStatus:   schoolModel.SchoolStatusActive,
		SchoolTimezone: "Asia/Jakarta",
	}
	require.NoError(t, db.Create(&s).Error)
	ft := schoolModel.DefaultFeatureToggle(s.SchoolID)
	require.NoError(t, db.Create(&ft).Error)
	return s
}

func CreateClass(t *testing.T, db *gorm.DB, schoolID uuid.UUID, name string) classModel.Class {
	t.Helper()
	c := classModel.Class{ClassSchoolID: schoolID, ClassName: name, ClassNumericValue: 1, ClassIsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func CreateSection(t *testing.T, db *gorm.DB, class classModel.Class, name string) classModel.Section {
	t.Helper()
	s := classModel.Section{SectionSchoolID: class.ClassSchoolID, SectionClassID: class.ClassID, SectionName: name}
	require.NoError(t, db.Create(&s).Error)
	return s
}

// StudentOpt tweaks a student before insert.
type StudentOpt func(*studentModel.Student)

func WithStatus(status studentModel.StudentStatus) StudentOpt {
	return func(s *studentModel.Student) { s.StudentStatus = status }
}

func WithParent(phone, email string) StudentOpt {
	return func(s *studentModel.Student) {
		s.StudentParentPhone = &phone
		s.StudentParentEmail = &email
	}
}

func WithoutSection() StudentOpt {
	return func(s *studentModel.Student) { s.StudentSectionID = nil }
}

// CreateStudent inserts a student directly, without roll-number recalculation.
func CreateStudent(t *testing.T, db *gorm.DB, section classModel.Section, first, last string, opts ...StudentOpt) studentModel.Student {
	t.Helper()
	sid := section.SectionID
	s := studentModel.Student{
		StudentSchoolID:        section.SectionSchoolID,
		StudentClassID:         section.SectionClassID,
		StudentSectionID:       &sid,
		StudentFirstName:       first,
		StudentLastName:        last,
		StudentAdmissionNumber: "ADM-" + uuid.NewString()[:8],
		StudentStatus:          studentModel.StudentStatusActive,
	}
	for _, o := range opts {
		o(&s)
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}
