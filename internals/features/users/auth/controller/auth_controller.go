package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/configs"
	"campusorbit_backend/internals/constants"
	studentModel "campusorbit_backend/internals/features/academics/students/model"
	"campusorbit_backend/internals/features/users/auth/dto"
	"campusorbit_backend/internals/features/users/auth/service"
	userModel "campusorbit_backend/internals/features/users/users/model"
	helper "campusorbit_backend/internals/helpers"
	helperAuth "campusorbit_backend/internals/helpers/auth"
)

type AuthController struct {
	DB    *gorm.DB
	Token service.TokenConfig
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{
		DB: db,
		Token: service.TokenConfig{
			Secret: configs.GetEnv("JWT_SECRET"),
			TTL:    configs.GetDuration("JWT_ACCESS_TTL"),
		},
	}
}

// POST /api/auth/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	res, err := service.Login(c.UserContext(), ac.DB, strings.TrimSpace(req.Email), req.Password, ac.Token, time.Now())
	if errors.Is(err, service.ErrBadCredentials) {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "login successful", res)
}

// GET /api/u/me
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var u userModel.User
	if err := ac.DB.WithContext(c.UserContext()).Where("user_id = ?", userID).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "user not found")
		}
		return helper.FromError(c, err)
	}

	out := fiber.Map{"user": u}
	if u.UserRole == constants.RoleStudent {
		var st studentModel.Student
		if err := ac.DB.WithContext(c.UserContext()).Where("student_user_id = ?", u.UserID).Take(&st).Error; err == nil {
			out["student"] = st
		}
	}
	return helper.JsonOK(c, "ok", out)
}
