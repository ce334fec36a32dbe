package events

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"renTrentoBack/internal/models"
)

const pushTimeout = 10 * time.Second

// Notifier delivers a push notification to one user.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string, data map[string]string) error
}

// Dispatcher fans rental events out to the hub and, when configured, to
// push notifications. Push delivery runs in the background.
type Dispatcher struct {
	hub    *Hub
	push   Notifier
	logger logrus.FieldLogger
	wg     sync.WaitGroup
}

// NewDispatcher builds a dispatcher. hub and push may each be nil.
func NewDispatcher(hub *Hub, push Notifier, logger logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{hub: hub, push: push, logger: logger.WithField("component", "events")}
}

func (d *Dispatcher) Publish(ctx context.Context, event models.RentalEvent) {
	recipients := []string{event.Rental.RenterID, event.Rental.ClientID}

	if d.hub != nil {
		for _, id := range recipients {
			if id != "" {
				d.hub.Push(id, event)
			}
		}
	}
	if d.push == nil {
		return
	}

	title, body := describe(event)
	data := map[string]string{
		"type":      event.Type,
		"rentalId":  event.Rental.ID,
		"productId": event.Rental.ProductID,
		"status":    event.Rental.Status,
	}
	for _, id := range recipients {
		if id == "" {
			continue
		}
		d.wg.Add(1)
		go func(userID string) {
			defer d.wg.Done()
			ctx, cancel := context.WithTimeout(ctx, pushTimeout)
			defer cancel()
			if err := d.push.Notify(ctx, userID, title, body, data); err != nil {
				d.logger.WithError(err).WithFields(logrus.Fields{
					"user_id":   userID,
					"rental_id": event.Rental.ID,
				}).Warn("push notification failed")
			}
		}(id)
	}
}

// Wait blocks until background deliveries are done.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func describe(event models.RentalEvent) (string, string) {
	switch event.Type {
	case models.EventRentalCreated:
		return "New rental", "A rental was booked"
	case models.EventRentalUpdated:
		return "Rental updated", "The rental period changed"
	case models.EventRentalCancelled:
		return "Rental cancelled", "The rental was cancelled and refunded"
	case models.EventRentalFinished:
		return "Rental finished", "The rental is over"
	case models.EventRentalDeleted:
		return "Rental deleted", "The rental was removed"
	default:
		return "Rental", event.Type
	}
}
