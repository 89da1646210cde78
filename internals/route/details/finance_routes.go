package details

import (
	feeRoute "campusorbit_backend/internals/features/finance/fees/route"
	feeService "campusorbit_backend/internals/features/finance/fees/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func FinancePublicRoutes(r fiber.Router, db *gorm.DB, checkout *feeService.CheckoutService) {
	feeRoute.FeePublicRoutes(r, db, checkout)
}

func FinanceAdminRoutes(r fiber.Router, db *gorm.DB, checkout *feeService.CheckoutService) {
	feeRoute.FeeAdminRoutes(r, db, checkout)
}

func FinanceUserRoutes(r fiber.Router, db *gorm.DB, checkout *feeService.CheckoutService) {
	feeRoute.FeeUserRoutes(r, db, checkout)
}
