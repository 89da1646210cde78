package auth

import (
	"github.com/gofiber/fiber/v2"

	helperAuth "campusorbit_backend/internals/helpers/auth"
)

// RoleMiddlewareWithCustomError allows the request only for the given roles.
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	if customForbiddenMessage == "" {
		customForbiddenMessage = "forbidden: you are not authorized to access this resource"
	}

	return func(c *fiber.Ctx) error {
		role := helperAuth.GetRole(c)
		if role == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized: missing role information")
		}
		if _, ok := allowed[role]; ok {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusForbidden, customForbiddenMessage)
	}
}

func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}
