package controller

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"campusorbit_backend/internals/features/academics/students/dto"
	"campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/academics/students/service"
	activityService "campusorbit_backend/internals/features/schools/activity_logs/service"
	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
	helper "campusorbit_backend/internals/helpers"
	helperAuth "campusorbit_backend/internals/helpers/auth"
)

type StudentController struct {
	DB *gorm.DB
}

func NewStudentController(db *gorm.DB) *StudentController {
	return &StudentController{DB: db}
}

func reqCtx(c *fiber.Ctx) context.Context {
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}

func studentIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid student id")
	}
	return id, nil
}

// GET /students
func (ctl *StudentController) List(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	var q dto.ListStudentsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	p := helper.ResolvePaging(c, 50, 200)

	db := ctl.DB.WithContext(reqCtx(c)).Model(&model.Student{}).
		Where("student_school_id = ?", schoolID)
	if q.ClassID != nil {
		db = db.Where("student_class_id = ?", *q.ClassID)
	}
	if q.SectionID != nil {
		db = db.Where("student_section_id = ?", *q.SectionID)
	}
	if q.Status != nil {
		db = db.Where("student_status = ?", *q.Status)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where(`LOWER(student_first_name) LIKE ?
			OR LOWER(COALESCE(student_last_name, '')) LIKE ?
			OR LOWER(student_admission_number) LIKE ?`, like, like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return helper.FromError(c, err)
	}
	var rows []model.Student
	if err := db.Order("student_first_name ASC, student_last_name ASC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "ok", dto.ToStudentResponses(rows), &pg)
}

// GET /students/:id
func (ctl *StudentController) Get(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := studentIDParam(c)
	if err != nil {
		return err
	}
	var s model.Student
	if err := ctl.DB.WithContext(reqCtx(c)).
		Where("student_id = ? AND student_school_id = ?", id, schoolID).
		Take(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "student not found")
		}
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToStudentResponse(s))
}

// POST /students
func (ctl *StudentController) Create(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.CreateStudentRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	s, err := service.CreateStudent(reqCtx(c), ctl.DB, schoolID, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "student created", dto.ToStudentResponse(s))
}

// PATCH /students/:id
func (ctl *StudentController) Update(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := studentIDParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStudentRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	s, err := service.UpdateStudent(reqCtx(c), ctl.DB, schoolID, id, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "student updated", dto.ToStudentResponse(s))
}

// POST /students/:id/toggle-active
func (ctl *StudentController) ToggleActive(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := studentIDParam(c)
	if err != nil {
		return err
	}
	s, err := service.ToggleActive(reqCtx(c), ctl.DB, schoolID, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "student is now "+string(s.StudentStatus), dto.ToStudentResponse(s))
}

// POST /students/import takes rows that were already parsed from the upload.
func (ctl *StudentController) Import(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.ImportStudentsRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}

	var school schoolModel.School
	if err := ctl.DB.WithContext(reqCtx(c)).Where("school_id = ?", schoolID).Take(&school).Error; err != nil {
		return helper.FromError(c, err)
	}
	if req.CreateLogins {
		var ft schoolModel.SchoolFeatureToggle
		if err := ctl.DB.WithContext(reqCtx(c)).Where("feature_toggle_school_id = ?", schoolID).Take(&ft).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.FromError(c, err)
		}
		if !ft.Enabled(schoolModel.FeatureStudentLogin) {
			return helper.JsonError(c, fiber.StatusForbidden, "student login is not enabled for this school")
		}
	}

	res := service.ImportStudents(reqCtx(c), ctl.DB, schoolID, school.SchoolCode, req)
	activityService.RecordBestEffort(ctl.DB, &schoolID, activityService.ActionStudentsImported,
		"students imported", helperAuth.UserIDPtr(c),
		map[string]any{"success_count": res.SuccessCount, "error_count": res.ErrorCount})
	return helper.JsonOK(c, "import finished", res)
}
