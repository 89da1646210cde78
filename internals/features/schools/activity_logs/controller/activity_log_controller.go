package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"campusorbit_backend/internals/features/schools/activity_logs/service"
	helper "campusorbit_backend/internals/helpers"
	helperAuth "campusorbit_backend/internals/helpers/auth"
)

type ActivityLogController struct {
	DB *gorm.DB
}

func NewActivityLogController(db *gorm.DB) *ActivityLogController {
	return &ActivityLogController{DB: db}
}

func (ctl *ActivityLogController) list(c *fiber.Ctx, f service.ListFilter) error {
	f.Action = c.Query("action")
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := service.List(c.UserContext(), ctl.DB, f, p)
	if err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "ok", rows, &pg)
}

// GET /api/a/activity-logs
func (ctl *ActivityLogController) ListForSchool(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	return ctl.list(c, service.ListFilter{SchoolID: &schoolID})
}

// GET /api/o/activity-logs?school_id=
func (ctl *ActivityLogController) ListAll(c *fiber.Ctx) error {
	var f service.ListFilter
	if v := c.Query("school_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid school_id")
		}
		f.SchoolID = &id
	}
	return ctl.list(c, f)
}
