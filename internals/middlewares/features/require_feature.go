package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
	helperAuth "campusorbit_backend/internals/helpers/auth"
)

// RequireActiveSchool rejects requests for schools that are inactive or
// suspended.
func RequireActiveSchool(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, err := helperAuth.GetSchoolIDFromToken(c)
		if err != nil {
			return err
		}
		var s schoolModel.School
		if err := db.WithContext(c.UserContext()).
			Select("school_id", "school_status").
			Where("school_id = ?", schoolID).
			Take(&s).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "school not found")
			}
			log.Printf("[ERROR] load school %s: %v", schoolID, err)
			return fiber.ErrInternalServerError
		}
		if !s.IsActive() {
			return fiber.NewError(fiber.StatusForbidden, "school is "+string(s.SchoolStatus))
		}
		return c.Next()
	}
}

// RequireFeature blocks the route unless the caller's school has the feature
// switched on.
func RequireFeature(db *gorm.DB, feature schoolModel.Feature) fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, err := helperAuth.GetSchoolIDFromToken(c)
		if err != nil {
			return err
		}
		var ft schoolModel.SchoolFeatureToggle
		err = db.WithContext(c.UserContext()).
			Where("feature_toggle_school_id = ?", schoolID).
			Take(&ft).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			ft = schoolModel.DefaultFeatureToggle(schoolID)
		case err != nil:
			log.Printf("[ERROR] load feature toggles for %s: %v", schoolID, err)
			return fiber.ErrInternalServerError
		}
		if !ft.Enabled(feature) {
			return fiber.NewError(fiber.StatusForbidden, string(feature)+" is not enabled for this school")
		}
		return c.Next()
	}
}
