package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusorbit_backend/internals/constants"
	classModel "campusorbit_backend/internals/features/academics/classes/model"
	"campusorbit_backend/internals/features/academics/students/dto"
	"campusorbit_backend/internals/features/academics/students/model"
	userModel "campusorbit_backend/internals/features/users/users/model"
	helper "campusorbit_backend/internals/helpers"
)

// ensurePlacement checks the class belongs to the school and the section (if
// any) belongs to the class.
func ensurePlacement(tx *gorm.DB, schoolID, classID uuid.UUID, sectionID *uuid.UUID) error {
	var n int64
	if err := tx.Model(&classModel.Class{}).
		Where("class_id = ? AND class_school_id = ?", classID, schoolID).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return helper.Validationf("class %s does not belong to this school", classID)
	}
	if sectionID == nil {
		return nil
	}
	if err := tx.Model(&classModel.Section{}).
		Where("section_id = ? AND section_class_id = ?", *sectionID, classID).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return helper.Validationf("section %s does not belong to class %s", *sectionID, classID)
	}
	return nil
}

func CreateStudent(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, in dto.CreateStudentRequest) (model.Student, error) {
	in.Normalize()
	s := in.ToModel(schoolID)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePlacement(tx, schoolID, s.StudentClassID, s.StudentSectionID); err != nil {
			return err
		}
		if err := tx.Create(&s).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return helper.Conflictf("admission number %q already exists", s.StudentAdmissionNumber)
			}
			return errors.Wrap(err, "create student")
		}
		if _, err := OnStudentSaved(ctx, tx, s.StudentID, nil, SnapshotOf(s)); err != nil {
			return err
		}
		return tx.Where("student_id = ?", s.StudentID).Take(&s).Error
	})
	return s, err
}

func UpdateStudent(ctx context.Context, db *gorm.DB, schoolID, studentID uuid.UUID, in dto.UpdateStudentRequest) (model.Student, error) {
	var s model.Student
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND student_school_id = ?", studentID, schoolID).
			Take(&s).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.NotFoundf("student %s", studentID)
			}
			return err
		}

		prev := SnapshotOf(s)
		in.Apply(&s)

		if in.StudentClassID != nil && in.StudentSectionID == nil && !in.ClearSection {
			// a class change without a new section leaves the old section behind
			if prev.SectionID != nil {
				var sec classModel.Section
				if err := tx.Where("section_id = ?", *prev.SectionID).Take(&sec).Error; err == nil && sec.SectionClassID != s.StudentClassID {
					s.StudentSectionID = nil
				}
			}
		}
		if !s.StudentStatus.Valid() {
			return helper.Validationf("invalid student status %q", s.StudentStatus)
		}
		if err := ensurePlacement(tx, schoolID, s.StudentClassID, s.StudentSectionID); err != nil {
			return err
		}
		if err := tx.Save(&s).Error; err != nil {
			return errors.Wrap(err, "save student")
		}
		if _, err := OnStudentSaved(ctx, tx, s.StudentID, &prev, SnapshotOf(s)); err != nil {
			return err
		}
		return tx.Where("student_id = ?", s.StudentID).Take(&s).Error
	})
	return s, err
}

// ToggleActive flips a student between active and inactive.
func ToggleActive(ctx context.Context, db *gorm.DB, schoolID, studentID uuid.UUID) (model.Student, error) {
	var cur model.Student
	if err := db.WithContext(ctx).
		Where("student_id = ? AND student_school_id = ?", studentID, schoolID).
		Take(&cur).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cur, helper.NotFoundf("student %s", studentID)
		}
		return cur, err
	}
	next := model.StudentStatusInactive
	if cur.StudentStatus != model.StudentStatusActive {
		next = model.StudentStatusActive
	}
	return UpdateStudent(ctx, db, schoolID, studentID, dto.UpdateStudentRequest{StudentStatus: &next})
}

// ImportStudents creates one student per row. Each row runs in its own
// transaction; a failing row is reported and does not affect the others.
func ImportStudents(ctx context.Context, db *gorm.DB, schoolID uuid.UUID, schoolCode string, req dto.ImportStudentsRequest) dto.ImportResult {
	res := dto.ImportResult{Errors: []dto.ImportRowError{}}

	classes := map[string]classModel.Class{}
	sections := map[string]classModel.Section{}

	for _, row := range req.Rows {
		err := importRow(ctx, db, schoolID, schoolCode, row, req.CreateLogins, classes, sections)
		if err != nil {
			res.ErrorCount++
			res.Errors = append(res.Errors, dto.ImportRowError{RowNumber: row.RowNumber, Error: rowError(err)})
			continue
		}
		res.SuccessCount++
	}
	return res
}

func rowError(err error) string {
	for _, sentinel := range []error{helper.ErrValidation, helper.ErrConflict, helper.ErrNotFound} {
		if errors.Is(err, sentinel) {
			return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
		}
	}
	return err.Error()
}

func importRow(
	ctx context.Context,
	db *gorm.DB,
	schoolID uuid.UUID,
	schoolCode string,
	row dto.ImportStudentRow,
	createLogin bool,
	classes map[string]classModel.Class,
	sections map[string]classModel.Section,
) error {
	if errs := helper.ValidateStruct(row); errs != nil {
		for field, msgs := range errs {
			return helper.Validationf("%s: %s", field, strings.Join(msgs, ", "))
		}
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		className := strings.TrimSpace(row.ClassName)
		cls, ok := classes[strings.ToLower(className)]
		if !ok {
			if err := tx.Where("class_school_id = ? AND LOWER(class_name) = ?", schoolID, strings.ToLower(className)).
				Take(&cls).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return helper.Validationf("class %q not found", className)
				}
				return err
			}
			classes[strings.ToLower(className)] = cls
		}

		var sectionID *uuid.UUID
		if name := strings.TrimSpace(row.SectionName); name != "" {
			key := cls.ClassID.String() + "/" + strings.ToLower(name)
			sec, ok := sections[key]
			if !ok {
				if err := tx.Where("section_class_id = ? AND LOWER(section_name) = ?", cls.ClassID, strings.ToLower(name)).
					Take(&sec).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return helper.Validationf("section %q not found in class %q", name, className)
					}
					return err
				}
				sections[key] = sec
			}
			id := sec.SectionID
			sectionID = &id
		}

		s := model.Student{
			StudentSchoolID:        schoolID,
			StudentFirstName:       strings.TrimSpace(row.FirstName),
			StudentLastName:        strings.TrimSpace(row.LastName),
			StudentAdmissionNumber: strings.TrimSpace(row.AdmissionNumber),
			StudentClassID:         cls.ClassID,
			StudentSectionID:       sectionID,
			StudentStatus:          model.StudentStatusActive,
			StudentGender:          row.Gender,
			StudentDateOfBirth:     row.DateOfBirth,
			StudentAddress:         row.Address,
			StudentParentName:      row.ParentName,
			StudentParentPhone:     row.ParentPhone,
			StudentParentEmail:     row.ParentEmail,
		}

		if createLogin {
			u, err := createStudentLogin(tx, schoolID, schoolCode, row)
			if err != nil {
				return err
			}
			s.StudentUserID = &u.UserID
		}

		if err := tx.Create(&s).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return helper.Conflictf("admission number %q already exists", s.StudentAdmissionNumber)
			}
			return err
		}
		_, err := OnStudentSaved(ctx, tx, s.StudentID, nil, SnapshotOf(s))
		return err
	})
}

// createStudentLogin makes a student account with email
// <admission>@<school code>.student and password Student@<admission>.
func createStudentLogin(tx *gorm.DB, schoolID uuid.UUID, schoolCode string, row dto.ImportStudentRow) (userModel.User, error) {
	local := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(row.AdmissionNumber), " ", ""))
	domain := strings.ToLower(strings.TrimSpace(schoolCode))
	email := fmt.Sprintf("%s@%s.student", local, domain)

	var n int64
	if err := tx.Model(&userModel.User{}).Where("user_email = ?", email).Count(&n).Error; err != nil {
		return userModel.User{}, err
	}
	if n > 0 {
		email = fmt.Sprintf("%s_%d@%s.student", local, row.RowNumber, domain)
	}

	u := userModel.User{
		UserSchoolID:  &schoolID,
		UserEmail:     email,
		UserFirstName: strings.TrimSpace(row.FirstName),
		UserLastName:  strings.TrimSpace(row.LastName),
		UserRole:      constants.RoleStudent,
		UserIsActive:  true,
	}
	if err := u.SetPassword("Student@" + strings.TrimSpace(row.AdmissionNumber)); err != nil {
		return u, err
	}
	if err := tx.Create(&u).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return u, helper.Conflictf("login %q already exists", email)
		}
		return u, err
	}
	return u, nil
}
