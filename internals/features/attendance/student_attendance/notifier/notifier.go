// Package notifier delivers absence alerts to parents.
package notifier

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

var ErrNoRecipient = errors.New("notifier: no parent contact on record")

type Message struct {
	Phone   string
	Email   string
	Subject string
	Body    string
}

func (m Message) HasContact() bool {
	return strings.TrimSpace(m.Phone) != "" || strings.TrimSpace(m.Email) != ""
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier prints alerts instead of sending them. Used in development and
// whenever no mail provider is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, msg Message) error {
	if !msg.HasContact() {
		return ErrNoRecipient
	}
	log.Printf("[ALERT] to phone=%q email=%q: %s", msg.Phone, msg.Email, msg.Body)
	return nil
}

// Retrying retries a failing Notifier with linear backoff. Each attempt gets
// its own timeout. ErrNoRecipient is never retried.
type Retrying struct {
	Next     Notifier
	Attempts int
	Backoff  time.Duration
	Timeout  time.Duration
}

func WithRetry(next Notifier, attempts int, backoff, timeout time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{Next: next, Attempts: attempts, Backoff: backoff, Timeout: timeout}
}

func (r *Retrying) Send(ctx context.Context, msg Message) error {
	var err error
	for i := 0; i < r.Attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i) * r.Backoff):
			}
		}
		err = r.attempt(ctx, msg)
		if err == nil || errors.Is(err, ErrNoRecipient) {
			return err
		}
		log.Printf("[ALERT] send attempt %d/%d failed: %v", i+1, r.Attempts, err)
	}
	return err
}

func (r *Retrying) attempt(ctx context.Context, msg Message) error {
	if r.Timeout <= 0 {
		return r.Next.Send(ctx, msg)
	}
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	return r.Next.Send(ctx, msg)
}
