package controller

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/features/attendance/teacher_attendance/dto"
	"campusorbit_backend/internals/features/attendance/teacher_attendance/service"
	activityService "campusorbit_backend/internals/features/schools/activity_logs/service"
	helper "campusorbit_backend/internals/helpers"
	helperAuth "campusorbit_backend/internals/helpers/auth"
	"campusorbit_backend/internals/helpers/dbtime"
)

type TeacherAttendanceController struct {
	DB *gorm.DB
}

func NewTeacherAttendanceController(db *gorm.DB) *TeacherAttendanceController {
	return &TeacherAttendanceController{DB: db}
}

func reqCtx(c *fiber.Ctx) context.Context {
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}

// POST /teacher-attendance/bulk-mark
func (ctl *TeacherAttendanceController) BulkMark(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.TeacherBulkMarkRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}

	res, err := service.BulkMark(reqCtx(c), ctl.DB, schoolID, &userID, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	activityService.RecordBestEffort(ctl.DB, &schoolID, activityService.ActionTeacherAttendanceMarked,
		"teacher attendance marked for "+req.Date, &userID,
		map[string]any{"created": res.Created, "updated": res.Updated})
	return helper.JsonOK(c, "attendance saved", res)
}

// GET /teacher-attendance/today?date=YYYY-MM-DD (default today, school time)
func (ctl *TeacherAttendanceController) Today(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	date := dbtime.TodayIn(dbtime.GetSchoolLocation(c), time.Now())
	if v := strings.TrimSpace(c.Query("date")); v != "" {
		if date, err = dbtime.ParseDate(v); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
	}

	sheet, err := service.Sheet(reqCtx(c), ctl.DB, schoolID, date)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", sheet)
}

// GET /teacher-attendance?date=
func (ctl *TeacherAttendanceController) List(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	var date *time.Time
	if v := strings.TrimSpace(c.Query("date")); v != "" {
		d, err := dbtime.ParseDate(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		date = &d
	}

	p := helper.ResolvePaging(c, 50, 500)
	rows, total, err := service.List(reqCtx(c), ctl.DB, schoolID, date, p)
	if err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "ok", rows, &pg)
}
