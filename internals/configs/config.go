package configs

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret string
	Conf      *viper.Viper
)

func init() {
	Conf = newViper()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ABSENT_ALERT_DELAY_MINUTES", 20)
	v.SetDefault("ALERT_POLL_SECONDS", 15)
	v.SetDefault("ALERT_BATCH_SIZE", 50)
	v.SetDefault("FEE_OVERDUE_CRON", "30 0 * * *")
	v.SetDefault("ROLL_RECONCILE_CRON", "")
	v.SetDefault("MAIL_FROM", "noreply@campusorbit.local")
	v.SetDefault("MAIL_FROM_NAME", "CampusOrbit")
	v.SetDefault("MIDTRANS_USE_PROD", false)
	v.SetDefault("JWT_ACCESS_TTL", 24*time.Hour)
	v.SetDefault("APP_ENV", "development")

	v.AutomaticEnv()
	return v
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[INFO] .env not found, using system environment")
		} else {
			log.Println("[INFO] .env loaded")
		}
	} else {
		log.Println("[INFO] running on Railway, using system environment")
	}

	// re-read so values from .env win over the init snapshot
	Conf = newViper()

	JWTSecret = GetEnv("JWT_SECRET")
	if JWTSecret == "" {
		log.Println("[ERROR] JWT_SECRET is not set")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	if Conf.IsSet(key) {
		if v := Conf.GetString(key); v != "" {
			return v
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func GetInt(key string) int                { return Conf.GetInt(key) }
func GetBool(key string) bool              { return Conf.GetBool(key) }
func GetDuration(key string) time.Duration { return Conf.GetDuration(key) }

// AlertDelay is the wait between marking a student absent and notifying the parent.
func AlertDelay() time.Duration {
	m := GetInt("ABSENT_ALERT_DELAY_MINUTES")
	if m < 0 {
		m = 0
	}
	return time.Duration(m) * time.Minute
}

// =======================
// DATABASE CONNECTOR
// =======================
func PostgresDSN(appName string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=%s&options=-c statement_timeout=3000",
		GetEnv("DB_USER"),
		GetEnv("DB_PASSWORD"),
		GetEnv("DB_HOST"),
		GetEnv("DB_PORT", "5432"),
		GetEnv("DB_NAME"),
		GetEnv("DB_SSLMODE", "require"),
		appName,
	)
}

// InitCommandDB opens a connection for one-shot commands (cmd/*).
func InitCommandDB() *gorm.DB {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN("campusorbit_cmd"),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: NewGormLogger(),
	})
	if err != nil {
		log.Fatalf("[ERROR] database connect (command): %v", err)
	}
	log.Println("[INFO] database (command) connected")
	return db
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	level := gormLogger.Warn
	if GetBool("DB_LOG_QUERIES") {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	nl := *l
	nl.LogLevel = level
	return &nl
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && err != gorm.ErrRecordNotFound:
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
