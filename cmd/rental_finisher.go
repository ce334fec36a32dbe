package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const rentalFinisherTimeout = 1 * time.Minute

// rentalJobs is the part of the rental service the finisher drives.
type rentalJobs interface {
	FinishExpired(ctx context.Context) (int, error)
	SyncProductStatuses(ctx context.Context) error
}

// startRentalFinisher closes rentals whose end date has passed and keeps
// product statuses in step with the current time. It stops with ctx.
func startRentalFinisher(ctx context.Context, jobs rentalJobs, interval time.Duration, logger logrus.FieldLogger) <-chan struct{} {
	done := make(chan struct{})
	logger = logger.WithField("component", "rental_finisher")

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, rentalFinisherTimeout)
			defer cancel()

			finished, err := jobs.FinishExpired(runCtx)
			if err != nil {
				logger.WithError(err).Error("failed to finish expired rentals")
			} else if finished > 0 {
				logger.Infof("finished %d expired rentals", finished)
			}
			if err := jobs.SyncProductStatuses(runCtx); err != nil {
				logger.WithError(err).Error("failed to sync product statuses")
			}
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
	return done
}
