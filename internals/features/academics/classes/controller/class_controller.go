package controller

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	"campusorbit_backend/internals/features/academics/classes/dto"
	"campusorbit_backend/internals/features/academics/classes/model"
	studentModel "campusorbit_backend/internals/features/academics/students/model"
	studentService "campusorbit_backend/internals/features/academics/students/service"
	activityService "campusorbit_backend/internals/features/schools/activity_logs/service"
	userModel "campusorbit_backend/internals/features/users/users/model"
	helper "campusorbit_backend/internals/helpers"
	helperAuth "campusorbit_backend/internals/helpers/auth"
)

type ClassController struct {
	DB *gorm.DB
}

func NewClassController(db *gorm.DB) *ClassController {
	return &ClassController{DB: db}
}

func reqCtx(c *fiber.Ctx) context.Context {
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}

func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func (ctl *ClassController) findClass(ctx context.Context, schoolID, classID uuid.UUID) (model.Class, error) {
	var m model.Class
	err := ctl.DB.WithContext(ctx).
		Where("class_id = ? AND class_school_id = ?", classID, schoolID).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m, helper.NotFoundf("class %s", classID)
	}
	return m, err
}

func (ctl *ClassController) findSection(ctx context.Context, schoolID, sectionID uuid.UUID) (model.Section, error) {
	var m model.Section
	err := ctl.DB.WithContext(ctx).
		Where("section_id = ? AND section_school_id = ?", sectionID, schoolID).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m, helper.NotFoundf("section %s", sectionID)
	}
	return m, err
}

// ensureTeacher checks the class teacher is a teacher of the same school.
func (ctl *ClassController) ensureTeacher(ctx context.Context, schoolID uuid.UUID, teacherID *uuid.UUID) error {
	if teacherID == nil {
		return nil
	}
	var n int64
	if err := ctl.DB.WithContext(ctx).Model(&userModel.User{}).
		Where("user_id = ? AND user_school_id = ? AND user_role = ?", *teacherID, schoolID, constants.RoleTeacher).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return helper.Validationf("class teacher %s is not a teacher of this school", *teacherID)
	}
	return nil
}

/* ===============================
   Classes
=================================*/

// GET /classes
func (ctl *ClassController) ListClasses(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	q := ctl.DB.WithContext(reqCtx(c)).
		Where("class_school_id = ?", schoolID).
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("section_name ASC") })
	if v := c.Query("is_active"); v != "" {
		q = q.Where("class_is_active = ?", v == "true" || v == "1")
	}
	var rows []model.Class
	if err := q.Order("class_numeric_value ASC, class_name ASC").Find(&rows).Error; err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

// GET /classes/:id
func (ctl *ClassController) GetClass(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var m model.Class
	if err := ctl.DB.WithContext(reqCtx(c)).
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("section_name ASC") }).
		Where("class_id = ? AND class_school_id = ?", id, schoolID).
		Take(&m).Error; err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", m)
}

// POST /classes
func (ctl *ClassController) CreateClass(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.CreateClassRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	m := req.ToModel(schoolID)
	if err := ctl.DB.WithContext(reqCtx(c)).Create(&m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "class name already exists")
		}
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "class created", m)
}

// PATCH /classes/:id
func (ctl *ClassController) UpdateClass(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateClassRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	m, err := ctl.findClass(reqCtx(c), schoolID, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	req.Apply(&m)
	if err := ctl.DB.WithContext(reqCtx(c)).Omit("Sections").Save(&m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "class name already exists")
		}
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "class updated", m)
}

// DELETE /classes/:id refuses while students or sections still point at it.
func (ctl *ClassController) DeleteClass(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	err = ctl.DB.WithContext(reqCtx(c)).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&studentModel.Student{}).Where("student_class_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return helper.Conflictf("class still has %d student(s)", n)
		}
		if err := tx.Where("section_class_id = ? AND section_school_id = ?", id, schoolID).Delete(&model.Section{}).Error; err != nil {
			return err
		}
		res := tx.Where("class_id = ? AND class_school_id = ?", id, schoolID).Delete(&model.Class{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return helper.NotFoundf("class %s", id)
		}
		return nil
	})
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonDeleted(c, "class deleted", fiber.Map{"class_id": id})
}

/* ===============================
   Sections
=================================*/

// POST /classes/:id/sections
func (ctl *ClassController) CreateSection(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	classID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateSectionRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	class, err := ctl.findClass(reqCtx(c), schoolID, classID)
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := ctl.ensureTeacher(reqCtx(c), schoolID, req.SectionClassTeacherID); err != nil {
		return helper.FromError(c, err)
	}
	m := req.ToModel(class)
	if err := ctl.DB.WithContext(reqCtx(c)).Create(&m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "section name already exists in this class")
		}
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "section created", m)
}

// PATCH /sections/:id
func (ctl *ClassController) UpdateSection(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateSectionRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	m, err := ctl.findSection(reqCtx(c), schoolID, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	if !req.ClearClassTeacher {
		if err := ctl.ensureTeacher(reqCtx(c), schoolID, req.SectionClassTeacherID); err != nil {
			return helper.FromError(c, err)
		}
	}
	req.Apply(&m)
	if err := ctl.DB.WithContext(reqCtx(c)).Save(&m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "section name already exists in this class")
		}
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "section updated", m)
}

// DELETE /sections/:id
func (ctl *ClassController) DeleteSection(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	err = ctl.DB.WithContext(reqCtx(c)).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&studentModel.Student{}).Where("student_section_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return helper.Conflictf("section still has %d student(s)", n)
		}
		res := tx.Where("section_id = ? AND section_school_id = ?", id, schoolID).Delete(&model.Section{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return helper.NotFoundf("section %s", id)
		}
		return nil
	})
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonDeleted(c, "section deleted", fiber.Map{"section_id": id})
}

// POST /sections/:id/recalculate-roll-numbers
func (ctl *ClassController) RecalculateRollNumbers(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if _, err := ctl.findSection(reqCtx(c), schoolID, id); err != nil {
		return helper.FromError(c, err)
	}
	res, err := studentService.Recalculate(reqCtx(c), ctl.DB, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	activityService.RecordBestEffort(ctl.DB, &schoolID, activityService.ActionRollRecalculated,
		"roll numbers recalculated for section "+res.SectionName, helperAuth.UserIDPtr(c),
		map[string]any{"section_id": id, "updated_count": res.UpdatedCount})
	return helper.JsonOK(c, "roll numbers recalculated", res)
}
