package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"campusorbit_backend/internals/configs"
)

// ConnectRedis returns nil when REDIS_ADDR is empty; callers fall back to
// database polling.
func ConnectRedis() *redis.Client {
	addr := configs.GetEnv("REDIS_ADDR")
	if addr == "" {
		log.Println("[INFO] REDIS_ADDR empty, alert queue runs on database polling only")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     configs.GetEnv("REDIS_PASSWORD"),
		DB:           configs.GetInt("REDIS_DB"),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[ERROR] redis ping %s: %v (alerts fall back to database polling)", addr, err)
	} else {
		log.Printf("[INFO] redis connected (%s)", addr)
	}
	return rdb
}
