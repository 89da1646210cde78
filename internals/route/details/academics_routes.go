package details

import (
	classRoute "campusorbit_backend/internals/features/academics/classes/route"
	studentRoute "campusorbit_backend/internals/features/academics/students/route"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func AcademicsAdminRoutes(r fiber.Router, db *gorm.DB) {
	classRoute.ClassAdminRoutes(r, db)
	studentRoute.StudentAdminRoutes(r, db)
}
