package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
	userModel "campusorbit_backend/internals/features/users/users/model"
	helper "campusorbit_backend/internals/helpers"
	authMiddleware "campusorbit_backend/internals/middlewares/auth"
)

// ErrBadCredentials covers unknown emails and wrong passwords alike.
var ErrBadCredentials = errors.New("invalid email or password")

type LoginResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        userModel.User `json:"user"`
	School      *SchoolSummary `json:"school,omitempty"`
}

type SchoolSummary struct {
	SchoolID       uuid.UUID `json:"school_id"`
	SchoolName     string    `json:"school_name"`
	SchoolCode     string    `json:"school_code"`
	SchoolTimezone string    `json:"school_timezone"`
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// Login checks the credentials and issues an access token. Users of an
// inactive school cannot log in; platform admins have no school.
func Login(ctx context.Context, db *gorm.DB, email, password string, cfg TokenConfig, now time.Time) (LoginResult, error) {
	var out LoginResult

	var u userModel.User
	if err := db.WithContext(ctx).
		Where("user_email = ?", userModel.NormalizeEmail(email)).
		Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, ErrBadCredentials
		}
		return out, err
	}
	if !u.CheckPassword(password) {
		return out, ErrBadCredentials
	}
	if !u.UserIsActive {
		return out, helper.Forbiddenf("account is inactive")
	}

	claims := authMiddleware.AccessClaims{
		ID:   u.UserID.String(),
		Role: u.UserRole,
		Name: u.FullName(),
	}
	if u.UserSchoolID != nil {
		var s schoolModel.School
		if err := db.WithContext(ctx).Where("school_id = ?", *u.UserSchoolID).Take(&s).Error; err != nil {
			return out, err
		}
		if !s.IsActive() {
			return out, helper.Forbiddenf("school is %s", s.SchoolStatus)
		}
		claims.SchoolID = s.SchoolID.String()
		claims.SchoolTimezone = s.SchoolTimezone
		out.School = &SchoolSummary{
			SchoolID:       s.SchoolID,
			SchoolName:     s.SchoolName,
			SchoolCode:     s.SchoolCode,
			SchoolTimezone: s.SchoolTimezone,
		}
	}

	token, exp, err := authMiddleware.IssueAccessToken(cfg.Secret, claims, cfg.TTL, now)
	if err != nil {
		return out, err
	}
	if err := db.WithContext(ctx).Model(&userModel.User{}).
		Where("user_id = ?", u.UserID).
		Update("user_last_login_at", now).Error; err != nil {
		return out, err
	}
	u.UserLastLoginAt = &now

	out.AccessToken = token
	out.TokenType = "Bearer"
	out.ExpiresAt = exp
	out.User = u
	return out, nil
}
