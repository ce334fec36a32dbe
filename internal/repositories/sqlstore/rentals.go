package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"renTrentoBack/internal/models"
)

const rentalColumns = `id, product_id, renter_id, client_id, start_date, end_date, rental_price, status, created_at, updated_at`

type RentalRepository struct {
	q sqlx.ExtContext
}

func (r *RentalRepository) CreateRental(ctx context.Context, rental models.Rental) (models.Rental, error) {
	query := r.q.Rebind(`
		INSERT INTO rentals (` + rentalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.q.ExecContext(ctx, query,
		rental.ID, rental.ProductID, rental.RenterID, rental.ClientID, rental.StartDate, rental.EndDate,
		rental.RentalPrice, rental.Status, rental.CreatedAt, rental.UpdatedAt,
	)
	if err != nil {
		return models.Rental{}, translate(err, "create rental")
	}
	return rental, nil
}

func (r *RentalRepository) GetRentalByID(ctx context.Context, id string) (models.Rental, error) {
	var rental models.Rental
	query := r.q.Rebind(`SELECT ` + rentalColumns + ` FROM rentals WHERE id = ?`)
	if err := sqlx.GetContext(ctx, r.q, &rental, query, id); err != nil {
		return models.Rental{}, translate(err, "get rental")
	}
	return rental, nil
}

func (r *RentalRepository) ListRentals(ctx context.Context, filter models.RentalFilter) ([]models.Rental, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if filter.ProductID != "" {
		add("product_id = ?", filter.ProductID)
	}
	if filter.RenterID != "" {
		add("renter_id = ?", filter.RenterID)
	}
	if filter.ClientID != "" {
		add("client_id = ?", filter.ClientID)
	}
	if filter.StartDate != nil {
		add("start_date = ?", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		add("end_date = ?", filter.EndDate.UTC())
	}
	if filter.Status != "" {
		add("status = ?", filter.Status)
	}
	if filter.VisibleTo != "" {
		conds = append(conds, "(renter_id = ? OR client_id = ?)")
		args = append(args, filter.VisibleTo, filter.VisibleTo)
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at, id`
	return r.selectRentals(ctx, "list rentals", query, args...)
}

func (r *RentalRepository) ListOverlapping(ctx context.Context, productID string, start, end time.Time, excludeID string) ([]models.Rental, error) {
	query := `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE product_id = ? AND status = ? AND start_date < ? AND end_date > ? AND id <> ?
		ORDER BY start_date`
	return r.selectRentals(ctx, "list overlapping rentals", query,
		productID, models.RentalActive, end.UTC(), start.UTC(), excludeID)
}

func (r *RentalRepository) ListExpired(ctx context.Context, now time.Time) ([]models.Rental, error) {
	query := `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE status = ? AND end_date <= ?
		ORDER BY end_date`
	return r.selectRentals(ctx, "list expired rentals", query, models.RentalActive, now.UTC())
}

func (r *RentalRepository) selectRentals(ctx context.Context, op, query string, args ...interface{}) ([]models.Rental, error) {
	rentals := []models.Rental{}
	if err := sqlx.SelectContext(ctx, r.q, &rentals, r.q.Rebind(query), args...); err != nil {
		return nil, translate(err, op)
	}
	return rentals, nil
}

func (r *RentalRepository) CountActiveByProduct(ctx context.Context, productID string) (int, error) {
	var n int
	query := r.q.Rebind(`SELECT COUNT(*) FROM rentals WHERE product_id = ? AND status = ?`)
	if err := sqlx.GetContext(ctx, r.q, &n, query, productID, models.RentalActive); err != nil {
		return 0, translate(err, "count active rentals")
	}
	return n, nil
}

func (r *RentalRepository) UpdateRental(ctx context.Context, rental models.Rental) error {
	query := r.q.Rebind(`
		UPDATE rentals
		SET start_date = ?, end_date = ?, rental_price = ?, status = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err := r.q.ExecContext(ctx, query,
		rental.StartDate, rental.EndDate, rental.RentalPrice, rental.Status, rental.UpdatedAt, rental.ID,
	)
	return translate(err, "update rental")
}

func (r *RentalRepository) DeleteRental(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM rentals WHERE id = ?`), id)
	if err != nil {
		return translate(err, "delete rental")
	}
	return expectAffected(res, "delete rental")
}
