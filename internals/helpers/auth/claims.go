package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"campusorbit_backend/internals/constants"
)

// Locals keys set by the JWT middleware.
const (
	LocUserID   = "user_id"
	LocRole     = "userRole"
	LocSchoolID = "school_id"
	LocUserName = "user_name"
)

func parseUUIDLocal(v any) (uuid.UUID, bool) {
	switch t := v.(type) {
	case uuid.UUID:
		return t, t != uuid.Nil
	case string:
		id, err := uuid.Parse(strings.TrimSpace(t))
		return id, err == nil && id != uuid.Nil
	default:
		return uuid.Nil, false
	}
}

func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	if c.Locals(LocUserID) == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "not logged in")
	}
	id, ok := parseUUIDLocal(c.Locals(LocUserID))
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id in token")
	}
	return id, nil
}

func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocRole).(string)
	return role
}

func IsPlatformAdmin(c *fiber.Ctx) bool {
	return GetRole(c) == constants.RolePlatformAdmin
}

// GetSchoolIDFromToken returns the tenant of the caller. Platform admins may
// act on a school through the X-School-ID header.
func GetSchoolIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := parseUUIDLocal(c.Locals(LocSchoolID)); ok {
		return id, nil
	}
	if IsPlatformAdmin(c) {
		if id, ok := parseUUIDLocal(c.Get("X-School-ID")); ok {
			return id, nil
		}
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "X-School-ID header is required for platform admins")
	}
	return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "no school in token")
}

// UserIDPtr is the caller's id, or nil when unavailable.
func UserIDPtr(c *fiber.Ctx) *uuid.UUID {
	id, err := GetUserIDFromToken(c)
	if err != nil {
		return nil
	}
	return &id
}
