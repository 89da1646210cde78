package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisQueue(rdb, "")
}

func TestRedisQueue_PopDueOnlyReturnsDueOnce(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	due, later := uuid.New(), uuid.New()
	_, err := q.Schedule(ctx, due, now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = q.Schedule(ctx, later, now.Add(20*time.Minute))
	require.NoError(t, err)

	got, err := q.PopDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{due}, got)

	got, err = q.PopDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = q.PopDue(ctx, now.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{later}, got)
}

func TestRedisQueue_CancelRemoves(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()
	now := time.Now()

	h, err := q.Schedule(ctx, uuid.New(), now)
	require.NoError(t, err)
	require.NoError(t, q.Cancel(ctx, h))
	require.NoError(t, q.Cancel(ctx, ""))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := q.PopDue(ctx, now.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisQueue_RescheduleKeepsSingleEntry(t *testing.T) {
	q := newQueue(t)
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	_, err := q.Schedule(ctx, id, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = q.Schedule(ctx, id, now.Add(-time.Second))
	require.NoError(t, err)

	got, err := q.PopDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, got)
}

func TestNoopQueue(t *testing.T) {
	var q Queue = NoopQueue{}
	_, err := q.Schedule(context.Background(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrNotConfigured)
	ids, err := q.PopDue(context.Background(), time.Now(), 5)
	assert.NoError(t, err)
	assert.Nil(t, ids)
}
