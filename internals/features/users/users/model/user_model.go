package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	UserID       uuid.UUID  `json:"user_id" gorm:"column:user_id;type:uuid;primaryKey"`
	UserSchoolID *uuid.UUID `json:"user_school_id,omitempty" gorm:"column:user_school_id;type:uuid;index:idx_users_school_role,priority:1"`

	UserEmail     string  `json:"user_email" gorm:"column:user_email;type:varchar(200);not null;uniqueIndex:uq_users_email"`
	UserPassword  string  `json:"-" gorm:"column:user_password;type:varchar(100);not null"`
	UserFirstName string  `json:"user_first_name" gorm:"column:user_first_name;type:varchar(100);not null"`
	UserLastName  string  `json:"user_last_name" gorm:"column:user_last_name;type:varchar(100)"`
	UserPhone     *string `json:"user_phone,omitempty" gorm:"column:user_phone;type:varchar(40)"`
	UserRole      string  `json:"user_role" gorm:"column:user_role;type:varchar(30);not null;index:idx_users_school_role,priority:2"`
	UserIsActive  bool    `json:"user_is_active" gorm:"column:user_is_active;not null"`

	UserLastLoginAt *time.Time `json:"user_last_login_at,omitempty" gorm:"column:user_last_login_at"`
	UserCreatedAt   time.Time  `json:"user_created_at" gorm:"column:user_created_at;not null;autoCreateTime"`
	UserUpdatedAt   time.Time  `json:"user_updated_at" gorm:"column:user_updated_at;not null;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	u.UserEmail = NormalizeEmail(u.UserEmail)
	return nil
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u User) FullName() string {
	return strings.TrimSpace(u.UserFirstName + " " + u.UserLastName)
}

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.UserPassword = string(hash)
	return nil
}

func (u User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.UserPassword), []byte(plain)) == nil
}
