package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"campusorbit_backend/internals/features/schools/schools/dto"
	"campusorbit_backend/internals/features/schools/schools/model"
	"campusorbit_backend/internals/features/schools/schools/service"
	helper "campusorbit_backend/internals/helpers"
	helperAuth "campusorbit_backend/internals/helpers/auth"
)

type SchoolController struct {
	DB *gorm.DB
}

func NewSchoolController(db *gorm.DB) *SchoolController {
	return &SchoolController{DB: db}
}

func schoolParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid school id")
	}
	return id, nil
}

/* ===============================
   Platform admin (/api/o)
=================================*/

// GET /schools
func (ctl *SchoolController) List(c *fiber.Ctx) error {
	var f service.ListFilter
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		st := model.SchoolStatus(v)
		if !st.Valid() {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid status")
		}
		f.Status = &st
	}
	f.Search = c.Query("q")

	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := service.ListSchools(c.UserContext(), ctl.DB, f, p)
	if err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "ok", rows, &pg)
}

// POST /schools
func (ctl *SchoolController) Create(c *fiber.Ctx) error {
	var req dto.CreateSchoolRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	out, err := service.CreateSchool(c.UserContext(), ctl.DB, req, helperAuth.UserIDPtr(c))
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "school created", out)
}

// GET /schools/:id
func (ctl *SchoolController) Get(c *fiber.Ctx) error {
	id, err := schoolParam(c)
	if err != nil {
		return err
	}
	out, err := service.GetSchool(c.UserContext(), ctl.DB, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// PATCH /schools/:id
func (ctl *SchoolController) Update(c *fiber.Ctx) error {
	id, err := schoolParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateSchoolRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	s, err := service.UpdateSchool(c.UserContext(), ctl.DB, id, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "school updated", s)
}

// GET /schools/:id/features
func (ctl *SchoolController) GetFeatures(c *fiber.Ctx) error {
	id, err := schoolParam(c)
	if err != nil {
		return err
	}
	t, err := service.GetFeatures(c.UserContext(), ctl.DB, id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", t)
}

// PATCH /schools/:id/features
func (ctl *SchoolController) UpdateFeatures(c *fiber.Ctx) error {
	id, err := schoolParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateFeaturesRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	t, err := service.UpdateFeatures(c.UserContext(), ctl.DB, id, req, helperAuth.UserIDPtr(c))
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "features updated", t)
}

/* ===============================
   School staff (/api/a)
=================================*/

// GET /school
func (ctl *SchoolController) Mine(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	out, err := service.GetSchool(c.UserContext(), ctl.DB, schoolID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}
