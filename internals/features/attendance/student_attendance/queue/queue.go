// Package queue holds delayed absence-alert deliveries until they are due.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("alert queue: not configured")

// Queue is a delayed-task store keyed by alert ID.
type Queue interface {
	// Schedule stores the alert for delivery at eta and returns a handle that
	// can be passed to Cancel.
	Schedule(ctx context.Context, alertID uuid.UUID, eta time.Time) (string, error)
	Cancel(ctx context.Context, handle string) error
	// PopDue claims up to limit alerts whose eta is not after now. A claimed
	// alert is never returned again.
	PopDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// NoopQueue is used when Redis is not configured. Due alerts are then picked
// up by the worker's database sweep.
type NoopQueue struct{}

func (NoopQueue) Schedule(context.Context, uuid.UUID, time.Time) (string, error) {
	return "", ErrNotConfigured
}

func (NoopQueue) Cancel(context.Context, string) error { return nil }

func (NoopQueue) PopDue(context.Context, time.Time, int) ([]uuid.UUID, error) { return nil, nil }
