package memstore

import (
	"context"
	"time"

	"renTrentoBack/internal/models"
)

type rentalRepo struct {
	s *Store
}

func (r *rentalRepo) CreateRental(ctx context.Context, rental models.Rental) (models.Rental, error) {
	err := r.s.write(ctx, func(st *state) error {
		if _, ok := st.rentals[rental.ID]; ok {
			return models.ErrDuplicate
		}
		st.rentals[rental.ID] = rental
		return nil
	})
	if err != nil {
		return models.Rental{}, err
	}
	return rental, nil
}

func (r *rentalRepo) GetRentalByID(ctx context.Context, id string) (models.Rental, error) {
	var rental models.Rental
	err := r.s.read(ctx, func(st *state) error {
		v, ok := st.rentals[id]
		if !ok {
			return models.ErrNoRecord
		}
		rental = v
		return nil
	})
	return rental, err
}

func (r *rentalRepo) ListRentals(ctx context.Context, filter models.RentalFilter) ([]models.Rental, error) {
	return r.list(ctx, func(v models.Rental) bool { return matchRental(v, filter) })
}

func (r *rentalRepo) ListOverlapping(ctx context.Context, productID string, start, end time.Time, excludeID string) ([]models.Rental, error) {
	return r.list(ctx, func(v models.Rental) bool {
		return v.ProductID == productID &&
			v.ID != excludeID &&
			v.Status == models.RentalActive &&
			v.Overlaps(start, end)
	})
}

func (r *rentalRepo) ListExpired(ctx context.Context, now time.Time) ([]models.Rental, error) {
	return r.list(ctx, func(v models.Rental) bool {
		return v.Status == models.RentalActive && !v.EndDate.After(now)
	})
}

func (r *rentalRepo) CountActiveByProduct(ctx context.Context, productID string) (int, error) {
	rentals, err := r.list(ctx, func(v models.Rental) bool {
		return v.ProductID == productID && v.Status == models.RentalActive
	})
	return len(rentals), err
}

func (r *rentalRepo) list(ctx context.Context, match func(models.Rental) bool) ([]models.Rental, error) {
	rentals := []models.Rental{}
	err := r.s.read(ctx, func(st *state) error {
		for _, v := range st.rentals {
			if match(v) {
				rentals = append(rentals, v)
			}
		}
		return nil
	})
	sortByCreated(rentals, func(v models.Rental) (int64, string) { return v.CreatedAt.UnixNano(), v.ID })
	return rentals, err
}

func matchRental(v models.Rental, f models.RentalFilter) bool {
	if f.ProductID != "" && v.ProductID != f.ProductID {
		return false
	}
	if f.RenterID != "" && v.RenterID != f.RenterID {
		return false
	}
	if f.ClientID != "" && v.ClientID != f.ClientID {
		return false
	}
	if f.StartDate != nil && !v.StartDate.Equal(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && !v.EndDate.Equal(*f.EndDate) {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.VisibleTo != "" && v.RenterID != f.VisibleTo && v.ClientID != f.VisibleTo {
		return false
	}
	return true
}

func (r *rentalRepo) UpdateRental(ctx context.Context, rental models.Rental) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.rentals[rental.ID]; !ok {
			return models.ErrNoRecord
		}
		st.rentals[rental.ID] = rental
		return nil
	})
}

func (r *rentalRepo) DeleteRental(ctx context.Context, id string) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.rentals[id]; !ok {
			return models.ErrNoRecord
		}
		delete(st.rentals, id)
		return nil
	})
}
