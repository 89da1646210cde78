package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"

	"campusorbit_backend/internals/configs"
	database "campusorbit_backend/internals/databases"
	"campusorbit_backend/internals/features/attendance/student_attendance/notifier"
	"campusorbit_backend/internals/features/attendance/student_attendance/queue"
	attendanceService "campusorbit_backend/internals/features/attendance/student_attendance/service"
	"campusorbit_backend/internals/features/attendance/student_attendance/worker"
	feeService "campusorbit_backend/internals/features/finance/fees/service"
	helper "campusorbit_backend/internals/helpers"
	"campusorbit_backend/internals/helpers/dbtime"
	middlewares "campusorbit_backend/internals/middlewares"
	routes "campusorbit_backend/internals/route"
	"campusorbit_backend/internals/scheduler"
)

func main() {
	configs.LoadEnv()
	helper.InitReporter(configs.GetEnv("ROLLBAR_TOKEN"), configs.GetEnv("APP_ENV"), configs.GetEnv("APP_VERSION", "dev"))
	defer helper.CloseReporter()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            middlewares.ErrorHandler,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// request id + timeout guard (matches statement_timeout on the DB side)
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s", id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
		return err
	})

	middlewares.SetupMiddlewares(app)

	database.ConnectDB()
	database.TunePool()
	if configs.GetBool("DB_AUTO_MIGRATE") {
		if err := database.AutoMigrate(database.DB); err != nil {
			log.Fatalf("[ERROR] auto migrate: %v", err)
		}
	}
	database.WarmUpQueries()

	// absence alerts: redis delayed queue when available, database polling always
	var q queue.Queue = queue.NoopQueue{}
	rdb := database.ConnectRedis()
	if rdb != nil {
		q = queue.NewRedisQueue(rdb, queue.DefaultKey)
	}
	var n notifier.Notifier = notifier.LogNotifier{}
	if key := configs.GetEnv("SENDGRID_API_KEY"); key != "" {
		n = notifier.NewSendGrid(key, configs.GetEnv("MAIL_FROM_NAME"), configs.GetEnv("MAIL_FROM"), "CampusOrbit")
	} else {
		log.Println("[INFO] SENDGRID_API_KEY empty, absence alerts are only logged")
	}
	n = notifier.WithRetry(n, 3, 2*time.Second, 10*time.Second)

	alerts := attendanceService.NewAlertService(database.DB, q, n, configs.AlertDelay())
	attendance := attendanceService.NewAttendanceService(database.DB, alerts)

	bg, stopBG := context.WithCancel(context.Background())
	defer stopBG()
	alertWorker := worker.New(alerts, worker.Config{
		Interval:  time.Duration(configs.GetInt("ALERT_POLL_SECONDS")) * time.Second,
		BatchSize: configs.GetInt("ALERT_BATCH_SIZE"),
		Grace:     time.Minute,
	})
	alertWorker.Start(bg)

	cronJobs, err := scheduler.Start(database.DB, scheduler.Config{
		OverdueSchedule: configs.GetEnv("FEE_OVERDUE_CRON"),
		RollSchedule:    configs.GetEnv("ROLL_RECONCILE_CRON"),
		Location:        dbtime.LoadLocation(configs.GetEnv("CRON_TIMEZONE", dbtime.DefaultTimezone)),
	})
	if err != nil {
		log.Fatalf("[ERROR] scheduler: %v", err)
	}

	var checkout *feeService.CheckoutService
	if key := configs.GetEnv("MIDTRANS_SERVER_KEY"); key != "" {
		checkout = &feeService.CheckoutService{
			DB:        database.DB,
			Gateway:   feeService.NewMidtransGateway(key, configs.GetBool("MIDTRANS_USE_PROD")),
			ServerKey: key,
		}
	} else {
		log.Println("[INFO] MIDTRANS_SERVER_KEY empty, online fee checkout disabled")
	}

	routes.BaseRoutes(app, database.DB)
	routes.SetupRoutes(app, database.DB, routes.Services{
		Attendance: attendance,
		Checkout:   checkout,
	})

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")
	go func() {
		log.Printf("[INFO] listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("[ERROR] server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	<-cronJobs.Stop().Done()
	alertWorker.Stop()
	if rdb != nil {
		_ = rdb.Close()
	}
	database.Close(database.DB)
}
