package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"campusorbit_backend/internals/configs"
	"campusorbit_backend/internals/constants"
	attendanceService "campusorbit_backend/internals/features/attendance/student_attendance/service"
	feeService "campusorbit_backend/internals/features/finance/fees/service"
	authMiddleware "campusorbit_backend/internals/middlewares/auth"
	featureMiddleware "campusorbit_backend/internals/middlewares/features"
	routeDetails "campusorbit_backend/internals/route/details"
)

var startTime time.Time

// Services are the long-lived collaborators built in main.
type Services struct {
	Attendance *attendanceService.AttendanceService
	Checkout   *feeService.CheckoutService // nil when Midtrans is not configured
}

func SetupRoutes(app *fiber.App, db *gorm.DB, svc Services) {
	startTime = time.Now()

	jwt := func() fiber.Handler {
		return authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              configs.GetEnv("JWT_SECRET"),
			DB:                  db,
			AllowCookieFallback: true,
		})
	}

	// ===================== AUTH =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	routeDetails.AuthRoutes(app, db)

	// ===================== GROUPS =====================
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")

	log.Println("[INFO] Setting up PRIVATE (user) group...")
	user := app.Group("/api/u", jwt())

	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck + active school)...")
	admin := app.Group("/api/a",
		jwt(),
		authMiddleware.OnlyRoles(constants.RoleErrorStaff("the school console"), constants.SchoolStaff...),
		featureMiddleware.RequireActiveSchool(db),
	)

	log.Println("[INFO] Setting up OWNER group (Auth + platform admin)...")
	owner := app.Group("/api/o",
		jwt(),
		authMiddleware.OnlyRoles(constants.RoleErrorPlatform("the platform console"), constants.PlatformOnly...),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting User routes...")
	routeDetails.UserRoutes(user, db)

	log.Println("[INFO] Mounting School routes...")
	routeDetails.SchoolAdminRoutes(admin, db)
	routeDetails.SchoolOwnerRoutes(owner, db)

	log.Println("[INFO] Mounting Academics routes...")
	routeDetails.AcademicsAdminRoutes(admin, db)

	log.Println("[INFO] Mounting Attendance routes...")
	routeDetails.AttendanceAdminRoutes(admin, db, svc.Attendance)
	routeDetails.AttendanceUserRoutes(user, db)

	log.Println("[INFO] Mounting Finance routes...")
	routeDetails.FinancePublicRoutes(public, db, svc.Checkout)
	routeDetails.FinanceAdminRoutes(admin, db, svc.Checkout)
	routeDetails.FinanceUserRoutes(user, db, svc.Checkout)
}
