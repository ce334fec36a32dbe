package services

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"renTrentoBack/internal/lock"
	"renTrentoBack/internal/models"
)

// EventPublisher receives rental events after the change is committed.
// Delivery failures stay inside the publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event models.RentalEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.RentalEvent) {}

func utcNow() time.Time {
	return time.Now().UTC()
}

// notFound swaps a storage miss for the user-facing sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, models.ErrNoRecord) {
		return sentinel
	}
	return err
}

func lockError(err error) error {
	if errors.Is(err, lock.ErrNotAcquired) {
		return models.ErrUnavailable
	}
	return errors.Wrap(err, "acquire lock")
}
