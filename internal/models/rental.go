package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RentalActive    = "active"
	RentalNotActive = "not_active"
	RentalFinished  = "finished"
)

type Rental struct {
	ID          string          `json:"id" db:"id"`
	ProductID   string          `json:"productId" db:"product_id"`
	RenterID    string          `json:"renterId" db:"renter_id"`
	ClientID    string          `json:"clientId" db:"client_id"`
	StartDate   time.Time       `json:"startDate" db:"start_date"`
	EndDate     time.Time       `json:"endDate" db:"end_date"`
	RentalPrice decimal.Decimal `json:"rentalPrice" db:"rental_price"`
	Status      string          `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// Overlaps reports whether the half-open windows [r.StartDate, r.EndDate)
// and [start, end) intersect.
func (r Rental) Overlaps(start, end time.Time) bool {
	return r.StartDate.Before(end) && r.EndDate.After(start)
}

// RentalFilter holds the equality filters of a rental listing. Zero values
// are ignored. VisibleTo, when set, restricts the result to rentals where the
// user is renter or client.
type RentalFilter struct {
	ProductID string
	RenterID  string
	ClientID  string
	StartDate *time.Time
	EndDate   *time.Time
	Status    string
	VisibleTo string
}

type CreateRentalInput struct {
	ProductID string
	StartDate time.Time
	EndDate   time.Time
}

type RentalUpdate struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    *string
}

// RentalEvent is published after a rental mutation is committed.
type RentalEvent struct {
	Type   string `json:"type"`
	Rental Rental `json:"rental"`
}

const (
	EventRentalCreated   = "rental.created"
	EventRentalUpdated   = "rental.updated"
	EventRentalCancelled = "rental.cancelled"
	EventRentalFinished  = "rental.finished"
	EventRentalDeleted   = "rental.deleted"
)
