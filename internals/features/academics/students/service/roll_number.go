package service

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	classModel "campusorbit_backend/internals/features/academics/classes/model"
	"campusorbit_backend/internals/features/academics/students/model"
	helper "campusorbit_backend/internals/helpers"
)

type RecalcResult struct {
	SectionID     uuid.UUID `json:"section_id"`
	SectionName   string    `json:"section_name,omitempty"`
	UpdatedCount  int       `json:"updated_count"`
	TotalStudents int       `json:"total_students"`
}

// StudentSnapshot is the part of a student that roll numbers depend on.
// Callers that update a student capture it before the change and pass it to
// OnStudentSaved together with the new one.
type StudentSnapshot struct {
	SectionID *uuid.UUID
	FirstName string
	LastName  string
	Status    model.StudentStatus
}

func SnapshotOf(s model.Student) StudentSnapshot {
	var sec *uuid.UUID
	if s.StudentSectionID != nil {
		id := *s.StudentSectionID
		sec = &id
	}
	return StudentSnapshot{
		SectionID: sec,
		FirstName: s.StudentFirstName,
		LastName:  s.StudentLastName,
		Status:    s.StudentStatus,
	}
}

func rollKey(s model.Student) (string, string) {
	return strings.ToLower(strings.TrimSpace(s.StudentFirstName)),
		strings.ToLower(strings.TrimSpace(s.StudentLastName))
}

// SortForRoll orders students by (first name, last name), case-insensitive and
// trimmed. The sort is stable, so ties keep the input order.
func SortForRoll(students []model.Student) []model.Student {
	out := make([]model.Student, len(students))
	copy(out, students)
	sort.SliceStable(out, func(i, j int) bool {
		fi, li := rollKey(out[i])
		fj, lj := rollKey(out[j])
		if fi != fj {
			return fi < fj
		}
		return li < lj
	})
	return out
}

// Recalculate renumbers the active students of a section 1..N in name order
// and writes only the rows whose roll number changed. The section row is
// locked for the duration so concurrent recalculations of the same section
// run one after the other.
func Recalculate(ctx context.Context, db *gorm.DB, sectionID uuid.UUID) (RecalcResult, error) {
	res := RecalcResult{SectionID: sectionID}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sec classModel.Section
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("section_id = ?", sectionID).
			Take(&sec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.NotFoundf("section %s", sectionID)
			}
			return errors.Wrap(err, "lock section")
		}
		res.SectionName = sec.SectionName

		var students []model.Student
		if err := tx.
			Where("student_section_id = ? AND student_status = ?", sectionID, model.StudentStatusActive).
			Order("student_created_at ASC, student_id ASC").
			Find(&students).Error; err != nil {
			return errors.Wrap(err, "load section students")
		}

		ordered := SortForRoll(students)
		res.TotalStudents = len(ordered)
		for i, s := range ordered {
			want := strconv.Itoa(i + 1)
			if s.StudentRollNumber != nil && *s.StudentRollNumber == want {
				continue
			}
			if err := tx.Model(&model.Student{}).
				Where("student_id = ?", s.StudentID).
				Update("student_roll_number", want).Error; err != nil {
				return errors.Wrapf(err, "update roll number of %s", s.StudentID)
			}
			res.UpdatedCount++
		}
		return nil
	})
	if err != nil {
		return RecalcResult{SectionID: sectionID}, err
	}
	return res, nil
}

// OnStudentSaved runs the recalculations a student change requires.
// prev is nil for a newly created student.
func OnStudentSaved(ctx context.Context, db *gorm.DB, studentID uuid.UUID, prev *StudentSnapshot, next StudentSnapshot) ([]RecalcResult, error) {
	var targets []uuid.UUID
	add := func(id *uuid.UUID) {
		if id == nil || *id == uuid.Nil {
			return
		}
		for _, t := range targets {
			if t == *id {
				return
			}
		}
		targets = append(targets, *id)
	}

	switch {
	case prev == nil:
		add(next.SectionID)
	case !sameSection(prev.SectionID, next.SectionID):
		add(prev.SectionID)
		add(next.SectionID)
	case prev.FirstName != next.FirstName, prev.LastName != next.LastName, prev.Status != next.Status:
		add(next.SectionID)
	}

	// roll numbers only mean something for active, sectioned students
	if next.SectionID == nil || next.Status != model.StudentStatusActive {
		if err := db.WithContext(ctx).Model(&model.Student{}).
			Where("student_id = ? AND student_roll_number IS NOT NULL", studentID).
			Update("student_roll_number", nil).Error; err != nil {
			return nil, errors.Wrap(err, "clear roll number")
		}
	}

	results := make([]RecalcResult, 0, len(targets))
	for _, sectionID := range targets {
		r, err := Recalculate(ctx, db, sectionID)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

func sameSection(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// RecalculateClass renumbers every section of a class.
func RecalculateClass(ctx context.Context, db *gorm.DB, classID uuid.UUID) ([]RecalcResult, error) {
	var sectionIDs []uuid.UUID
	if err := db.WithContext(ctx).Model(&classModel.Section{}).
		Where("section_class_id = ?", classID).
		Order("section_name ASC").
		Pluck("section_id", &sectionIDs).Error; err != nil {
		return nil, err
	}
	out := make([]RecalcResult, 0, len(sectionIDs))
	for _, id := range sectionIDs {
		r, err := Recalculate(ctx, db, id)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

type RecalcFilter struct {
	SchoolID  *uuid.UUID
	SectionID *uuid.UUID
}

type RecalcFailure struct {
	SectionID uuid.UUID `json:"section_id"`
	Error     string    `json:"error"`
}

// RecalculateAll walks the selected sections, one transaction each. A failing
// section is reported and does not stop the others.
func RecalculateAll(ctx context.Context, db *gorm.DB, f RecalcFilter) ([]RecalcResult, []RecalcFailure, error) {
	q := db.WithContext(ctx).Model(&classModel.Section{})
	if f.SectionID != nil {
		q = q.Where("section_id = ?", *f.SectionID)
	}
	if f.SchoolID != nil {
		q = q.Where("section_school_id = ?", *f.SchoolID)
	}
	var sectionIDs []uuid.UUID
	if err := q.Order("section_school_id, section_class_id, section_name").Pluck("section_id", &sectionIDs).Error; err != nil {
		return nil, nil, err
	}
	if f.SectionID != nil && len(sectionIDs) == 0 {
		return nil, nil, helper.NotFoundf("section %s", *f.SectionID)
	}

	var (
		results  []RecalcResult
		failures []RecalcFailure
	)
	for _, id := range sectionIDs {
		if err := ctx.Err(); err != nil {
			return results, failures, err
		}
		r, err := Recalculate(ctx, db, id)
		if err != nil {
			log.Printf("[ROLL] section %s: %v", id, err)
			failures = append(failures, RecalcFailure{SectionID: id, Error: err.Error()})
			continue
		}
		results = append(results, r)
	}
	return results, failures, nil
}
