package controller

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	classModel "campusorbit_backend/internals/features/academics/classes/model"
	"campusorbit_backend/internals/features/finance/fees/dto"
	"campusorbit_backend/internals/features/finance/fees/model"
	"campusorbit_backend/internals/features/finance/fees/service"
	helper "campusorbit_backend/internals/helpers"
	helperAuth "campusorbit_backend/internals/helpers/auth"
)

type FeeController struct {
	DB       *gorm.DB
	Checkout *service.CheckoutService // nil when online payment is not configured
}

func NewFeeController(db *gorm.DB, checkout *service.CheckoutService) *FeeController {
	return &FeeController{DB: db, Checkout: checkout}
}

func reqCtx(c *fiber.Ctx) context.Context {
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}

func idParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func optUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func optInt(c *fiber.Ctx, name string) (*int, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return &n, nil
}

/* ===============================
   Fee structures
=================================*/

// GET /fees/structures?class_id=&is_active=
func (ctl *FeeController) ListStructures(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	classID, err := optUUID(c, "class_id")
	if err != nil {
		return err
	}
	q := ctl.DB.WithContext(reqCtx(c)).Where("fee_structure_school_id = ?", schoolID)
	if classID != nil {
		q = q.Where("fee_structure_class_id = ?", *classID)
	}
	if v := c.Query("is_active"); v != "" {
		q = q.Where("fee_structure_is_active = ?", v == "true" || v == "1")
	}
	var rows []model.FeeStructure
	if err := q.Order("fee_structure_class_id, fee_structure_fee_type, fee_structure_name").Find(&rows).Error; err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

// POST /fees/structures
func (ctl *FeeController) CreateStructure(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.CreateFeeStructureRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	var n int64
	if err := ctl.DB.WithContext(reqCtx(c)).Model(&classModel.Class{}).
		Where("class_id = ? AND class_school_id = ?", req.FeeStructureClassID, schoolID).
		Count(&n).Error; err != nil {
		return helper.FromError(c, err)
	}
	if n == 0 {
		return helper.JsonError(c, fiber.StatusBadRequest, "class not found in this school")
	}
	m := req.ToModel(schoolID)
	if err := ctl.DB.WithContext(reqCtx(c)).Create(&m).Error; err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "fee structure created", m)
}

// PATCH /fees/structures/:id
func (ctl *FeeController) UpdateStructure(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateFeeStructureRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	var m model.FeeStructure
	if err := ctl.DB.WithContext(reqCtx(c)).
		Where("fee_structure_id = ? AND fee_structure_school_id = ?", id, schoolID).
		Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "fee structure not found")
		}
		return helper.FromError(c, err)
	}
	req.Apply(&m)
	if err := ctl.DB.WithContext(reqCtx(c)).Save(&m).Error; err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "fee structure updated", m)
}

// DELETE /fees/structures/:id deactivates; generated records keep pointing at it.
func (ctl *FeeController) DeactivateStructure(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	res := ctl.DB.WithContext(reqCtx(c)).Model(&model.FeeStructure{}).
		Where("fee_structure_id = ? AND fee_structure_school_id = ?", id, schoolID).
		Update("fee_structure_is_active", false)
	if res.Error != nil {
		return helper.FromError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "fee structure not found")
	}
	return helper.JsonDeleted(c, "fee structure deactivated", fiber.Map{"fee_structure_id": id})
}
