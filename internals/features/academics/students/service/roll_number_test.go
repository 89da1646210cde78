package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"campusorbit_backend/internals/databases/testdb"
	classModel "campusorbit_backend/internals/features/academics/classes/model"
	"campusorbit_backend/internals/features/academics/students/dto"
	"campusorbit_backend/internals/features/academics/students/model"
	helper "campusorbit_backend/internals/helpers"
)

type fixture struct {
	db       *gorm.DB
	schoolID uuid.UUID
	class    classModel.Class
	secA     classModel.Section
	secB     classModel.Section
}

func newFixture(t *testing.T) fixture {
	db := testdb.Open(t)
	school := testdb.CreateSchool(t, db, "ORB")
	class := testdb.CreateClass(t, db, school.SchoolID, "Class 5")
	return fixture{
		db:       db,
		schoolID: school.SchoolID,
		class:    class,
		secA:     testdb.CreateSection(t, db, class, "A"),
		secB:     testdb.CreateSection(t, db, class, "B"),
	}
}

// rolls maps first name to roll number for the active students of a section.
func rolls(t *testing.T, db *gorm.DB, sectionID uuid.UUID) map[string]string {
	t.Helper()
	var list []model.Student
	require.NoError(t, db.Where("student_section_id = ? AND student_status = ?", sectionID, model.StudentStatusActive).Find(&list).Error)
	out := map[string]string{}
	for _, s := range list {
		roll := ""
		if s.StudentRollNumber != nil {
			roll = *s.StudentRollNumber
		}
		out[s.StudentFirstName] = roll
	}
	return out
}

func assertDense(t *testing.T, db *gorm.DB, sectionID uuid.UUID) {
	t.Helper()
	got := rolls(t, db, sectionID)
	seen := map[string]bool{}
	for _, r := range got {
		seen[r] = true
	}
	for i := 1; i <= len(got); i++ {
		assert.Truef(t, seen[strconv.Itoa(i)], "roll %d missing in %v", i, got)
	}
}

func TestSortForRoll_CaseInsensitiveAndTrimmed(t *testing.T) {
	in := []model.Student{
		{StudentFirstName: "Bob", StudentLastName: "A"},
		{StudentFirstName: "alice", StudentLastName: "A"},
		{StudentFirstName: "Carl", StudentLastName: "Z"},
		{StudentFirstName: "  bob ", StudentLastName: "0"},
	}
	out := SortForRoll(in)
	names := []string{}
	for _, s := range out {
		names = append(names, s.StudentFirstName+"/"+s.StudentLastName)
	}
	assert.Equal(t, []string{"alice/A", "  bob /0", "Bob/A", "Carl/Z"}, names)
}

func TestSortForRoll_TiesKeepInputOrder(t *testing.T) {
	first := model.Student{StudentID: uuid.New(), StudentFirstName: "Dana", StudentLastName: "Lee"}
	second := model.Student{StudentID: uuid.New(), StudentFirstName: "dana", StudentLastName: "LEE"}
	out := SortForRoll([]model.Student{first, second})
	assert.Equal(t, first.StudentID, out[0].StudentID)
	assert.Equal(t, second.StudentID, out[1].StudentID)
}

func TestRecalculate_AssignsByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testdb.CreateStudent(t, f.db, f.secA, "Bob", "A")
	testdb.CreateStudent(t, f.db, f.secA, "alice", "A")
	testdb.CreateStudent(t, f.db, f.secA, "Carl", "Z")

	res, err := Recalculate(ctx, f.db, f.secA.SectionID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalStudents)
	assert.Equal(t, 3, res.UpdatedCount)
	assert.Equal(t, map[string]string{"alice": "1", "Bob": "2", "Carl": "3"}, rolls(t, f.db, f.secA.SectionID))

	again, err := Recalculate(ctx, f.db, f.secA.SectionID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.UpdatedCount)
	assert.Equal(t, 3, again.TotalStudents)
}

func TestRecalculate_IgnoresInactiveAndOtherSections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testdb.CreateStudent(t, f.db, f.secA, "Zed", "Q")
	gone := testdb.CreateStudent(t, f.db, f.secA, "Aaron", "Q", testdb.WithStatus(model.StudentStatusTransferred))
	testdb.CreateStudent(t, f.db, f.secB, "Abe", "Q")

	res, err := Recalculate(ctx, f.db, f.secA.SectionID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalStudents)
	assert.Equal(t, map[string]string{"Zed": "1"}, rolls(t, f.db, f.secA.SectionID))

	var reloaded model.Student
	require.NoError(t, f.db.Where("student_id = ?", gone.StudentID).Take(&reloaded).Error)
	assert.Nil(t, reloaded.StudentRollNumber)
}

func TestRecalculate_EmptySection(t *testing.T) {
	f := newFixture(t)
	testdb.CreateStudent(t, f.db, f.secA, "Ann", "", testdb.WithStatus(model.StudentStatusGraduated))

	res, err := Recalculate(context.Background(), f.db, f.secB.SectionID)
	require.NoError(t, err)
	assert.Zero(t, res.TotalStudents)
	assert.Zero(t, res.UpdatedCount)
	assert.Empty(t, rolls(t, f.db, f.secB.SectionID))
}

func TestRecalculate_UnknownSection(t *testing.T) {
	f := newFixture(t)
	_, err := Recalculate(context.Background(), f.db, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, helper.ErrNotFound)
}

func TestOnStudentSaved_Triggers(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	base := StudentSnapshot{SectionID: &a, FirstName: "Ann", LastName: "Lee", Status: model.StudentStatusActive}

	cases := []struct {
		name string
		prev *StudentSnapshot
		next func(StudentSnapshot) StudentSnapshot
		want []uuid.UUID
	}{
		{"created", nil, func(s StudentSnapshot) StudentSnapshot { return s }, []uuid.UUID{a}},
		{"section change", &base, func(s StudentSnapshot) StudentSnapshot { s.SectionID = &b; return s }, []uuid.UUID{a, b}},
		{"left section", &base, func(s StudentSnapshot) StudentSnapshot { s.SectionID = nil; return s }, []uuid.UUID{a}},
		{"rename", &base, func(s StudentSnapshot) StudentSnapshot { s.LastName = "Kim"; return s }, []uuid.UUID{a}},
		{"status change", &base, func(s StudentSnapshot) StudentSnapshot { s.Status = model.StudentStatusGraduated; return s }, []uuid.UUID{a}},
		{"unrelated change", &base, func(s StudentSnapshot) StudentSnapshot { return s }, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := testdb.Open(t)
			school := testdb.CreateSchool(t, db, "TRG")
			class := testdb.CreateClass(t, db, school.SchoolID, "C1")
			for _, id := range []uuid.UUID{a, b} {
				require.NoError(t, db.Create(&classModel.Section{
					SectionID: id, SectionSchoolID: school.SchoolID, SectionClassID: class.ClassID, SectionName: id.String()[:6],
				}).Error)
			}

			results, err := OnStudentSaved(context.Background(), db, uuid.New(), tc.prev, tc.next(base))
			require.NoError(t, err)
			var got []uuid.UUID
			for _, r := range results {
				got = append(got, r.SectionID)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUpdateStudent_MoveBetweenSectionsKeepsBothDense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var mover model.Student
	for _, n := range []string{"Ann", "Ben", "Cal"} {
		s, err := CreateStudent(ctx, f.db, f.schoolID, dto.CreateStudentRequest{
			StudentFirstName: n, StudentLastName: "X", StudentAdmissionNumber: "A-" + n,
			StudentClassID: f.class.ClassID, StudentSectionID: &f.secA.SectionID,
		})
		require.NoError(t, err)
		if n == "Ben" {
			mover = s
		}
	}
	_, err := CreateStudent(ctx, f.db, f.schoolID, dto.CreateStudentRequest{
		StudentFirstName: "Dee", StudentAdmissionNumber: "B-Dee",
		StudentClassID: f.class.ClassID, StudentSectionID: &f.secB.SectionID,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Ann": "1", "Ben": "2", "Cal": "3"}, rolls(t, f.db, f.secA.SectionID))

	// A -> B
	_, err = UpdateStudent(ctx, f.db, f.schoolID, mover.StudentID, dto.UpdateStudentRequest{StudentSectionID: &f.secB.SectionID})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Ann": "1", "Cal": "2"}, rolls(t, f.db, f.secA.SectionID))
	assert.Equal(t, map[string]string{"Ben": "1", "Dee": "2"}, rolls(t, f.db, f.secB.SectionID))

	// B -> A
	_, err = UpdateStudent(ctx, f.db, f.schoolID, mover.StudentID, dto.UpdateStudentRequest{StudentSectionID: &f.secA.SectionID})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Ann": "1", "Ben": "2", "Cal": "3"}, rolls(t, f.db, f.secA.SectionID))
	assert.Equal(t, map[string]string{"Dee": "1"}, rolls(t, f.db, f.secB.SectionID))
	assertDense(t, f.db, f.secA.SectionID)
	assertDense(t, f.db, f.secB.SectionID)
}

func TestUpdateStudent_RenameAndDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mk := func(first, adm string) model.Student {
		s, err := CreateStudent(ctx, f.db, f.schoolID, dto.CreateStudentRequest{
			StudentFirstName: first, StudentAdmissionNumber: adm,
			StudentClassID: f.class.ClassID, StudentSectionID: &f.secA.SectionID,
		})
		require.NoError(t, err)
		return s
	}
	mk("Bella", "1")
	zoe := mk("Zoe", "2")

	newName := "Abby"
	_, err := UpdateStudent(ctx, f.db, f.schoolID, zoe.StudentID, dto.UpdateStudentRequest{StudentFirstName: &newName})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Abby": "1", "Bella": "2"}, rolls(t, f.db, f.secA.SectionID))

	updated, err := ToggleActive(ctx, f.db, f.schoolID, zoe.StudentID)
	require.NoError(t, err)
	assert.Equal(t, model.StudentStatusInactive, updated.StudentStatus)
	assert.Nil(t, updated.StudentRollNumber)
	assert.Equal(t, map[string]string{"Bella": "1"}, rolls(t, f.db, f.secA.SectionID))
}

func TestCreateStudent_RejectsForeignSection(t *testing.T) {
	f := newFixture(t)
	other := testdb.CreateClass(t, f.db, f.schoolID, "Class 6")
	foreign := testdb.CreateSection(t, f.db, other, "A")

	_, err := CreateStudent(context.Background(), f.db, f.schoolID, dto.CreateStudentRequest{
		StudentFirstName: "Eve", StudentAdmissionNumber: "E-1",
		StudentClassID: f.class.ClassID, StudentSectionID: &foreign.SectionID,
	})
	assert.ErrorIs(t, err, helper.ErrValidation)
}

func TestCreateStudent_DuplicateAdmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := dto.CreateStudentRequest{StudentFirstName: "Ian", StudentAdmissionNumber: "DUP", StudentClassID: f.class.ClassID}

	_, err := CreateStudent(ctx, f.db, f.schoolID, in)
	require.NoError(t, err)
	_, err = CreateStudent(ctx, f.db, f.schoolID, in)
	assert.ErrorIs(t, err, helper.ErrConflict)
}

func TestRecalculateAll_FiltersBySchool(t *testing.T) {
	f := newFixture(t)
	other := testdb.CreateSchool(t, f.db, "OTH")
	otherClass := testdb.CreateClass(t, f.db, other.SchoolID, "K")
	otherSec := testdb.CreateSection(t, f.db, otherClass, "A")

	testdb.CreateStudent(t, f.db, f.secA, "Ann", "")
	testdb.CreateStudent(t, f.db, otherSec, "Oli", "")

	results, failures, err := RecalculateAll(context.Background(), f.db, RecalcFilter{SchoolID: &f.schoolID})
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Len(t, results, 2) // sections A and B of the fixture school
	assert.Equal(t, map[string]string{"Oli": ""}, rolls(t, f.db, otherSec.SectionID))

	_, _, err = RecalculateAll(context.Background(), f.db, RecalcFilter{SectionID: ptr(uuid.New())})
	assert.ErrorIs(t, err, helper.ErrNotFound)
}

func ptr[T any](v T) *T { return &v }
