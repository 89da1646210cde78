package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/constants"
	"campusorbit_backend/internals/features/finance/fees/controller"
	"campusorbit_backend/internals/features/finance/fees/service"
	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
	"campusorbit_backend/internals/middlewares"
	authMiddleware "campusorbit_backend/internals/middlewares/auth"
	featureMiddleware "campusorbit_backend/internals/middlewares/features"
)

// FeeAdminRoutes mounts under /api/a for account and school admins.
func FeeAdminRoutes(admin fiber.Router, db *gorm.DB, checkout *service.CheckoutService) {
	ctl := controller.NewFeeController(db, checkout)
	accounts := authMiddleware.OnlyRoles(constants.RoleErrorAccounts("fees"), constants.AccountsAndAdmin...)

	g := admin.Group("/fees", featureMiddleware.RequireFeature(db, schoolModel.FeatureFees), accounts)

	g.Get("/structures", ctl.ListStructures)
	g.Post("/structures", ctl.CreateStructure)
	g.Patch("/structures/:id", ctl.UpdateStructure)
	g.Delete("/structures/:id", ctl.DeactivateStructure)

	g.Get("/records", ctl.ListRecords)
	g.Post("/records/generate", ctl.Generate)
	g.Patch("/records/:id", ctl.Adjust)
	g.Post("/records/:id/waive", ctl.Waive)
	g.Get("/records/:id/payments", ctl.ListPayments)
	g.Post("/records/:id/checkout", ctl.StaffCheckout)

	g.Post("/payments", ctl.RecordPayment)
	g.Get("/pending", ctl.Pending)
	g.Get("/dashboard", ctl.Dashboard)
}

// FeeUserRoutes mounts under /api/u for students.
func FeeUserRoutes(user fiber.Router, db *gorm.DB, checkout *service.CheckoutService) {
	ctl := controller.NewFeeController(db, checkout)
	students := authMiddleware.OnlyRoles("only students have their own fees", constants.RoleStudent)

	g := user.Group("/fees", featureMiddleware.RequireFeature(db, schoolModel.FeatureFees), students)
	g.Get("/my-fees", ctl.MyFees)
	g.Post("/checkout", ctl.MyCheckout)
}

// FeePublicRoutes mounts the gateway webhook under /api/public.
func FeePublicRoutes(public fiber.Router, db *gorm.DB, checkout *service.CheckoutService) {
	ctl := controller.NewFeeController(db, checkout)
	public.Post("/fees/midtrans/notification", middlewares.WebhookRateLimiter(), ctl.MidtransNotification)
}
