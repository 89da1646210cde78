package queue

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "campusorbit:absent_alerts:due"

// RedisQueue keeps pending alerts in a sorted set scored by ETA (unix seconds).
type RedisQueue struct {
	rdb *redis.Client
	key string
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultKey
	}
	return &RedisQueue{rdb: rdb, key: key}
}

func (q *RedisQueue) Schedule(ctx context.Context, alertID uuid.UUID, eta time.Time) (string, error) {
	member := alertID.String()
	if err := q.rdb.ZAdd(ctx, q.key, redis.Z{Score: float64(eta.Unix()), Member: member}).Err(); err != nil {
		return "", errors.Wrap(err, "zadd alert")
	}
	return member, nil
}

func (q *RedisQueue) Cancel(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	return errors.Wrap(q.rdb.ZRem(ctx, q.key, handle).Err(), "zrem alert")
}

// PopDue reads due members and removes them one by one; only members this
// call actually removed are returned, so concurrent workers never share one.
func (q *RedisQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 50
	}
	members, err := q.rdb.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "zrangebyscore alerts")
	}

	out := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		removed, err := q.rdb.ZRem(ctx, q.key, m).Result()
		if err != nil {
			return out, errors.Wrap(err, "claim alert")
		}
		if removed == 0 {
			continue
		}
		id, err := uuid.Parse(m)
		if err != nil {
			log.Printf("[ALERT] dropping malformed queue member %q", m)
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// Len is the number of alerts still waiting.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, q.key).Result()
}
