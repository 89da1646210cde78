package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	studentModel "campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/dto"
	"campusorbit_backend/internals/features/attendance/student_attendance/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/service"
	activityService "campusorbit_backend/internals/features/schools/activity_logs/service"
	helper "campusorbit_backend/internals/helpers"
	helperAuth "campusorbit_backend/internals/helpers/auth"
	"campusorbit_backend/internals/helpers/dbtime"
)

type AttendanceController struct {
	DB  *gorm.DB
	Svc *service.AttendanceService
}

func NewAttendanceController(db *gorm.DB, svc *service.AttendanceService) *AttendanceController {
	return &AttendanceController{DB: db, Svc: svc}
}

func reqCtx(c *fiber.Ctx) context.Context {
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}

// caller returns school, user and role of the request.
func caller(c *fiber.Ctx) (uuid.UUID, uuid.UUID, string, error) {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, "", err
	}
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, "", err
	}
	return schoolID, userID, helperAuth.GetRole(c), nil
}

// dateQuery reads ?<name>=YYYY-MM-DD; empty yields nil.
func dateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	d, err := dbtime.ParseDate(v)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name+", expected YYYY-MM-DD")
	}
	return &d, nil
}

// POST /attendance/bulk-mark
func (ctl *AttendanceController) BulkMark(c *fiber.Ctx) error {
	schoolID, userID, role, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.BulkMarkRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	if _, err := service.CheckSectionAccess(reqCtx(c), ctl.DB, schoolID, req.SectionID, userID, role); err != nil {
		return helper.FromError(c, err)
	}

	res, err := ctl.Svc.BulkMark(reqCtx(c), schoolID, &userID, req)
	if err != nil {
		return helper.FromError(c, err)
	}
	activityService.RecordBestEffort(ctl.DB, &schoolID, activityService.ActionAttendanceMarked,
		"attendance marked for "+req.Date, &userID,
		map[string]any{"section_id": req.SectionID, "created": res.Created, "updated": res.Updated})
	return helper.JsonOK(c, "attendance saved", res)
}

// POST /attendance/mark
func (ctl *AttendanceController) MarkOne(c *fiber.Ctx) error {
	schoolID, userID, role, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.MarkAttendanceRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	date, err := dbtime.ParseDate(req.Date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid date")
	}
	if _, err := service.CheckSectionAccess(reqCtx(c), ctl.DB, schoolID, req.SectionID, userID, role); err != nil {
		return helper.FromError(c, err)
	}

	att, created, err := ctl.Svc.MarkOne(reqCtx(c), schoolID, req.SectionID, date, &userID, service.MarkInput{
		StudentID: req.StudentID,
		Status:    req.Status,
		Remarks:   req.Remarks,
	})
	if err != nil {
		return helper.FromError(c, err)
	}
	if created {
		return helper.JsonCreated(c, "attendance saved", att)
	}
	return helper.JsonUpdated(c, "attendance saved", att)
}

// GET /attendance/sections/:section_id?date=YYYY-MM-DD (default today, school time)
func (ctl *AttendanceController) BySection(c *fiber.Ctx) error {
	schoolID, userID, role, err := caller(c)
	if err != nil {
		return err
	}
	sectionID, err := uuid.Parse(c.Params("section_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid section id")
	}
	date, err := dateQuery(c, "date")
	if err != nil {
		return err
	}
	if date == nil {
		today := dbtime.TodayIn(dbtime.GetSchoolLocation(c), time.Now())
		date = &today
	}
	if _, err := service.CheckSectionAccess(reqCtx(c), ctl.DB, schoolID, sectionID, userID, role); err != nil {
		return helper.FromError(c, err)
	}
	sheet, err := service.BySection(reqCtx(c), ctl.DB, schoolID, sectionID, *date)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", sheet)
}

// GET /attendance?section_id=&date=
func (ctl *AttendanceController) List(c *fiber.Ctx) error {
	schoolID, userID, role, err := caller(c)
	if err != nil {
		return err
	}
	var sectionID *uuid.UUID
	if v := strings.TrimSpace(c.Query("section_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid section_id")
		}
		sectionID = &id
	}
	date, err := dateQuery(c, "date")
	if err != nil {
		return err
	}
	var teacherID *uuid.UUID
	if role == constants.RoleTeacher {
		teacherID = &userID
	}

	p := helper.ResolvePaging(c, 50, 500)
	rows, total, err := service.ListAttendance(reqCtx(c), ctl.DB, schoolID, sectionID, date, teacherID, p)
	if err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "ok", rows, &pg)
}

// GET /attendance/students/:id/history?from=&to=
func (ctl *AttendanceController) StudentHistory(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid student id")
	}
	var n int64
	if err := ctl.DB.WithContext(reqCtx(c)).Model(&studentModel.Student{}).
		Where("student_id = ? AND student_school_id = ?", id, schoolID).
		Count(&n).Error; err != nil {
		return helper.FromError(c, err)
	}
	if n == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "student not found")
	}
	return ctl.history(c, id)
}

// GET /api/u/attendance/my-history for the logged-in student.
func (ctl *AttendanceController) MyHistory(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var st studentModel.Student
	if err := ctl.DB.WithContext(reqCtx(c)).
		Where("student_user_id = ?", userID).
		Take(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "no student profile for this account")
		}
		return helper.FromError(c, err)
	}
	return ctl.history(c, st.StudentID)
}

func (ctl *AttendanceController) history(c *fiber.Ctx, studentID uuid.UUID) error {
	from, err := dateQuery(c, "from")
	if err != nil {
		return err
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		return err
	}
	out, err := service.StudentHistory(reqCtx(c), ctl.DB, studentID, from, to)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /attendance/alerts?status=&section_id=&from=&to=
func (ctl *AttendanceController) ListAlerts(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	var q dto.AlertListQuery
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		st := model.AlertStatus(v)
		q.Status = &st
	}
	if v := strings.TrimSpace(c.Query("section_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid section_id")
		}
		q.SectionID = &id
	}
	if q.From, err = dateQuery(c, "from"); err != nil {
		return err
	}
	if q.To, err = dateQuery(c, "to"); err != nil {
		return err
	}
	if q.To != nil {
		next := q.To.AddDate(0, 0, 1)
		q.To = &next
	}

	p := helper.ResolvePaging(c, 50, 200)
	rows, total, err := service.ListAlerts(reqCtx(c), ctl.DB, schoolID, q, p)
	if err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "ok", rows, &pg)
}
