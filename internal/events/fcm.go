package events

import (
	"context"
	"time"

	"firebase.google.com/go/messaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"renTrentoBack/internal/models"
)

// Sender is the part of *messaging.Client used here.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// UserLookup resolves the device token of a user.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// FCMNotifier pushes notifications through Firebase behind a circuit
// breaker, so an FCM outage does not slow every rental mutation down.
type FCMNotifier struct {
	sender Sender
	users  UserLookup
	cb     *gobreaker.CircuitBreaker
	logger logrus.FieldLogger
}

func NewFCMNotifier(sender Sender, users UserLookup, logger logrus.FieldLogger) *FCMNotifier {
	logger = logger.WithField("component", "fcm")
	return &FCMNotifier{
		sender: sender,
		users:  users,
		cb:     circuitBreaker("fcm", logger),
		logger: logger,
	}
}

func circuitBreaker(name string, logger logrus.FieldLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// a bad device token says nothing about FCM health
			return err == nil || messaging.IsRegistrationTokenNotRegistered(err) || messaging.IsInvalidArgument(err)
		},
	})
}

// Notify sends a notification to the device of userID. Users without a
// device token are skipped.
func (n *FCMNotifier) Notify(ctx context.Context, userID, title, body string, data map[string]string) error {
	user, err := n.users.GetUserByID(ctx, userID)
	if err != nil {
		return errors.Wrapf(err, "fcm: lookup user %s", userID)
	}
	if user.FCMToken == "" {
		return nil
	}

	message := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	_, err = n.cb.Execute(func() (interface{}, error) {
		return n.sender.Send(ctx, message)
	})
	if err != nil {
		return errors.Wrapf(err, "fcm: send to user %s", userID)
	}
	return nil
}
