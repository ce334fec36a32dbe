package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"renTrentoBack/internal/fsm"
	"renTrentoBack/internal/lock"
	"renTrentoBack/internal/models"
	"renTrentoBack/internal/policy"
	"renTrentoBack/internal/pricing"
	"renTrentoBack/internal/repositories"
	"renTrentoBack/internal/wallet"
)

// coverWindow is the slice of time after now used to decide whether a
// rental is currently running.
const coverWindow = time.Second

type RentalService struct {
	Store  repositories.Store
	Locker lock.Locker
	Ledger *wallet.Ledger
	Events EventPublisher
	Logger logrus.FieldLogger
	Now    func() time.Time
}

func NewRentalService(store repositories.Store, locker lock.Locker, events EventPublisher, logger logrus.FieldLogger) *RentalService {
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RentalService{
		Store:  store,
		Locker: locker,
		Ledger: wallet.NewLedger(),
		Events: events,
		Logger: logger,
		Now:    utcNow,
	}
}

func (s *RentalService) CreateRental(ctx context.Context, caller models.Principal, in models.CreateRentalInput) (models.Rental, error) {
	product, err := s.Store.Products().GetProductByID(ctx, in.ProductID)
	if err != nil {
		return models.Rental{}, notFound(err, models.ErrIncorrectProductID)
	}
	if product.OwnerID == caller.ID {
		return models.Rental{}, models.ErrOwnProduct
	}
	now := s.Now()
	if err := validatePeriod(in.StartDate, in.EndDate, now); err != nil {
		return models.Rental{}, err
	}
	if product.Status == models.ProductUnavailable {
		return models.Rental{}, models.ErrProductNotAvailable
	}

	var rental models.Rental
	err = s.withProductLock(ctx, product.ID, func() error {
		return s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			product, err := tx.Products().GetProductByIDForUpdate(ctx, in.ProductID)
			if err != nil {
				return notFound(err, models.ErrIncorrectProductID)
			}
			if product.Status == models.ProductUnavailable {
				return models.ErrProductNotAvailable
			}
			if err := checkAvailable(ctx, tx, product.ID, in.StartDate, in.EndDate, ""); err != nil {
				return err
			}
			price, err := pricing.Price(in.StartDate, in.EndDate, product.PricePerDay)
			if err != nil {
				return models.ErrInvalidPeriod
			}

			client, _, err := s.Ledger.LockParties(ctx, tx, caller.ID, product.OwnerID)
			if err != nil {
				return notFound(err, models.ErrUserNotFound)
			}
			if client.Wallet.LessThan(price) {
				return models.ErrNotEnoughMoney
			}

			rental, err = tx.Rentals().CreateRental(ctx, models.Rental{
				ID:          uuid.NewString(),
				ProductID:   product.ID,
				RenterID:    product.OwnerID,
				ClientID:    caller.ID,
				StartDate:   in.StartDate,
				EndDate:     in.EndDate,
				RentalPrice: price,
				Status:      models.RentalActive,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return errors.Wrap(err, "create rental")
			}

			_, err = s.Ledger.ApplyDelta(ctx, tx, wallet.Transfer{
				PayerID:  rental.ClientID,
				PayeeID:  rental.RenterID,
				RentalID: rental.ID,
				Kind:     models.LedgerRentalCharge,
				Amount:   price,
			})
			if err != nil {
				return err
			}
			return syncProductStatus(ctx, tx, product, now)
		})
	})
	if err != nil {
		return models.Rental{}, err
	}

	s.publish(ctx, models.EventRentalCreated, rental)
	return rental, nil
}

func (s *RentalService) GetRental(ctx context.Context, caller models.Principal, id string) (models.Rental, error) {
	rental, err := s.Store.Rentals().GetRentalByID(ctx, id)
	if err != nil {
		return models.Rental{}, notFound(err, models.ErrRentalNotFound)
	}
	if !policy.CanAccessRental(caller, rental) {
		return models.Rental{}, models.ErrRentalForbidden
	}
	return rental, nil
}

// ListRentals applies the equality filters. Non-admin callers only get the
// rentals they are a party of.
func (s *RentalService) ListRentals(ctx context.Context, caller models.Principal, filter models.RentalFilter) ([]models.Rental, error) {
	if !caller.IsAdmin() {
		filter.VisibleTo = caller.ID
	}
	return s.Store.Rentals().ListRentals(ctx, filter)
}

// UpdateRental changes the window and/or status of a rental. Moving the
// window reprices it and settles the difference between the two wallets.
func (s *RentalService) UpdateRental(ctx context.Context, caller models.Principal, id string, upd models.RentalUpdate) error {
	rental, err := s.GetRental(ctx, caller, id)
	if err != nil {
		return err
	}
	if upd.Status != nil {
		if !fsm.Valid(*upd.Status) {
			return models.ErrInvalidStatus
		}
		if !fsm.CanTransition(rental.Status, *upd.Status) {
			return models.ErrInvalidTransition
		}
	}

	start, end := rental.StartDate, rental.EndDate
	if upd.StartDate != nil {
		start = *upd.StartDate
	}
	if upd.EndDate != nil {
		end = *upd.EndDate
	}
	datesChanged := !start.Equal(rental.StartDate) || !end.Equal(rental.EndDate)

	if upd.Status != nil && *upd.Status != rental.Status {
		if datesChanged {
			return models.ErrInvalidTransition
		}
		switch *upd.Status {
		case models.RentalNotActive:
			_, err = s.CancelRental(ctx, caller, id)
		case models.RentalFinished:
			_, err = s.FinishRental(ctx, caller, id)
		}
		return err
	}

	if datesChanged && fsm.Terminal(rental.Status) {
		return models.ErrRentalClosed
	}
	now := s.Now()
	if !start.Before(end) {
		return models.ErrInvalidPeriod
	}
	if !start.Equal(rental.StartDate) && start.Before(now) {
		return models.ErrInvalidPeriod
	}

	var updated models.Rental
	changed := false
	err = s.withProductLock(ctx, rental.ProductID, func() error {
		return s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			current, err := tx.Rentals().GetRentalByID(ctx, id)
			if err != nil {
				return notFound(err, models.ErrRentalNotFound)
			}
			product, err := tx.Products().GetProductByIDForUpdate(ctx, current.ProductID)
			if err != nil {
				return notFound(err, models.ErrProductNotFound)
			}
			client, _, err := s.Ledger.LockParties(ctx, tx, current.ClientID, current.RenterID)
			if err != nil {
				return notFound(err, models.ErrUserNotFound)
			}
			if !datesChanged {
				return nil
			}
			if current.Status != models.RentalActive {
				return models.ErrRentalClosed
			}
			if err := checkAvailable(ctx, tx, product.ID, start, end, current.ID); err != nil {
				return err
			}

			newPrice, err := pricing.Price(start, end, product.PricePerDay)
			if err != nil {
				return models.ErrInvalidPeriod
			}
			delta := pricing.Delta(current.RentalPrice, newPrice)
			if delta.IsPositive() && client.Wallet.LessThan(delta) {
				return models.ErrNotEnoughMoney
			}

			current.StartDate = start
			current.EndDate = end
			current.RentalPrice = newPrice
			current.UpdatedAt = now
			if err := tx.Rentals().UpdateRental(ctx, current); err != nil {
				return errors.Wrap(err, "update rental")
			}
			_, err = s.Ledger.ApplyDelta(ctx, tx, wallet.Transfer{
				PayerID:  current.ClientID,
				PayeeID:  current.RenterID,
				RentalID: current.ID,
				Kind:     models.LedgerRentalAdjustment,
				Amount:   delta,
			})
			if err != nil {
				return err
			}
			updated, changed = current, true
			return syncProductStatus(ctx, tx, product, now)
		})
	})
	if err != nil {
		return err
	}

	if changed {
		s.publish(ctx, models.EventRentalUpdated, updated)
	}
	return nil
}

// CancelRental refunds the full price and closes a rental that has not
// started yet. Cancelling a cancelled rental is a no-op.
func (s *RentalService) CancelRental(ctx context.Context, caller models.Principal, id string) (models.Rental, error) {
	rental, err := s.GetRental(ctx, caller, id)
	if err != nil {
		return models.Rental{}, err
	}

	changed := false
	err = s.withProductLock(ctx, rental.ProductID, func() error {
		return s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			current, err := tx.Rentals().GetRentalByID(ctx, id)
			if err != nil {
				return notFound(err, models.ErrRentalNotFound)
			}
			rental = current
			switch current.Status {
			case models.RentalNotActive:
				return nil
			case models.RentalFinished:
				return models.ErrInvalidTransition
			}
			now := s.Now()
			if !now.Before(current.StartDate) {
				return models.ErrRentalStarted
			}

			_, err = s.Ledger.ApplyDelta(ctx, tx, wallet.Transfer{
				PayerID:  current.ClientID,
				PayeeID:  current.RenterID,
				RentalID: current.ID,
				Kind:     models.LedgerRentalRefund,
				Amount:   current.RentalPrice.Neg(),
			})
			if err != nil {
				return notFound(err, models.ErrUserNotFound)
			}

			current.Status = models.RentalNotActive
			current.UpdatedAt = now
			if err := tx.Rentals().UpdateRental(ctx, current); err != nil {
				return errors.Wrap(err, "cancel rental")
			}
			rental, changed = current, true
			return syncProductByID(ctx, tx, current.ProductID, now)
		})
	})
	if err != nil {
		return models.Rental{}, err
	}

	if changed {
		s.publish(ctx, models.EventRentalCancelled, rental)
	}
	return rental, nil
}

// FinishRental closes an active rental without moving money.
func (s *RentalService) FinishRental(ctx context.Context, caller models.Principal, id string) (models.Rental, error) {
	rental, err := s.GetRental(ctx, caller, id)
	if err != nil {
		return models.Rental{}, err
	}

	changed := false
	err = s.withProductLock(ctx, rental.ProductID, func() error {
		return s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			current, err := tx.Rentals().GetRentalByID(ctx, id)
			if err != nil {
				return notFound(err, models.ErrRentalNotFound)
			}
			rental = current
			if !fsm.CanTransition(current.Status, models.RentalFinished) {
				return models.ErrInvalidTransition
			}
			if current.Status == models.RentalFinished {
				return nil
			}
			rental, err = finish(ctx, tx, current, s.Now())
			changed = err == nil
			return err
		})
	})
	if err != nil {
		return models.Rental{}, err
	}

	if changed {
		s.publish(ctx, models.EventRentalFinished, rental)
	}
	return rental, nil
}

// DeleteRental removes the record. Wallets are left untouched.
func (s *RentalService) DeleteRental(ctx context.Context, caller models.Principal, id string) error {
	rental, err := s.GetRental(ctx, caller, id)
	if err != nil {
		return err
	}

	err = s.withProductLock(ctx, rental.ProductID, func() error {
		return s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			if err := tx.Rentals().DeleteRental(ctx, id); err != nil {
				return notFound(err, models.ErrRentalNotFound)
			}
			return syncProductByID(ctx, tx, rental.ProductID, s.Now())
		})
	})
	if err != nil {
		return err
	}

	s.publish(ctx, models.EventRentalDeleted, rental)
	return nil
}

// FinishExpired closes every active rental whose end date has passed and
// returns how many were closed. A failing rental is logged and skipped.
func (s *RentalService) FinishExpired(ctx context.Context) (int, error) {
	now := s.Now()
	expired, err := s.Store.Rentals().ListExpired(ctx, now)
	if err != nil {
		return 0, errors.Wrap(err, "list expired rentals")
	}

	count := 0
	for _, r := range expired {
		var finished models.Rental
		changed := false
		err := s.withProductLock(ctx, r.ProductID, func() error {
			return s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
				current, err := tx.Rentals().GetRentalByID(ctx, r.ID)
				if errors.Is(err, models.ErrNoRecord) {
					return nil
				}
				if err != nil {
					return err
				}
				if current.Status != models.RentalActive || current.EndDate.After(now) {
					return nil
				}
				finished, err = finish(ctx, tx, current, now)
				changed = err == nil
				return err
			})
		})
		if err != nil {
			if ctx.Err() != nil {
				return count, ctx.Err()
			}
			s.Logger.WithError(err).WithField("rental_id", r.ID).Warn("finish expired rental")
			continue
		}
		if changed {
			count++
			s.publish(ctx, models.EventRentalFinished, finished)
		}
	}
	return count, nil
}

// SyncProductStatuses marks products rented while an active rental covers
// now and returns rented products to available otherwise. Products an owner
// marked unavailable are left alone. Each product is re-read under its
// booking lock, so the listing below only selects what to visit.
func (s *RentalService) SyncProductStatuses(ctx context.Context) error {
	now := s.Now()
	products, err := s.Store.Products().ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	for _, p := range products {
		err := s.withProductLock(ctx, p.ID, func() error {
			return s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
				return syncProductByID(ctx, tx, p.ID, now)
			})
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.Logger.WithError(err).WithField("product_id", p.ID).Warn("sync product status")
		}
	}
	return nil
}

func (s *RentalService) withProductLock(ctx context.Context, productID string, fn func() error) error {
	release, err := s.Locker.Acquire(ctx, lock.ProductKey(productID))
	if err != nil {
		return lockError(err)
	}
	defer release()
	return fn()
}

func (s *RentalService) publish(ctx context.Context, eventType string, rental models.Rental) {
	s.Events.Publish(context.WithoutCancel(ctx), models.RentalEvent{Type: eventType, Rental: rental})
}

func finish(ctx context.Context, tx repositories.Store, rental models.Rental, now time.Time) (models.Rental, error) {
	rental.Status = models.RentalFinished
	rental.UpdatedAt = now
	if err := tx.Rentals().UpdateRental(ctx, rental); err != nil {
		return models.Rental{}, errors.Wrap(err, "finish rental")
	}
	return rental, syncProductByID(ctx, tx, rental.ProductID, now)
}

// validatePeriod accepts a start equal to now.
func validatePeriod(start, end, now time.Time) error {
	if !start.Before(end) || start.Before(now) {
		return models.ErrInvalidPeriod
	}
	return nil
}

func checkAvailable(ctx context.Context, tx repositories.Store, productID string, start, end time.Time, excludeID string) error {
	taken, err := tx.Rentals().ListOverlapping(ctx, productID, start, end, excludeID)
	if err != nil {
		return errors.Wrap(err, "check availability")
	}
	if len(taken) > 0 {
		return models.ErrProductAlreadyTaken
	}
	return nil
}

func syncProductByID(ctx context.Context, tx repositories.Store, productID string, now time.Time) error {
	product, err := tx.Products().GetProductByIDForUpdate(ctx, productID)
	if errors.Is(err, models.ErrNoRecord) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "load product")
	}
	return syncProductStatus(ctx, tx, product, now)
}

func syncProductStatus(ctx context.Context, tx repositories.Store, product models.Product, now time.Time) error {
	covering, err := tx.Rentals().ListOverlapping(ctx, product.ID, now, now.Add(coverWindow), "")
	if err != nil {
		return errors.Wrap(err, "list covering rentals")
	}
	want := wantedProductStatus(product.Status, len(covering) > 0)
	if want == product.Status {
		return nil
	}
	return errors.Wrap(tx.Products().SetProductStatus(ctx, product.ID, want), "set product status")
}

func wantedProductStatus(current string, covered bool) string {
	switch {
	case current == models.ProductUnavailable:
		return current
	case covered:
		return models.ProductRented
	default:
		return models.ProductAvailable
	}
}
