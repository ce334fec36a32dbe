package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProductAvailable   = "available"
	ProductUnavailable = "unavailable"
	ProductRented      = "rented"
)

func ValidProductStatus(status string) bool {
	switch status {
	case ProductAvailable, ProductUnavailable, ProductRented:
		return true
	}
	return false
}

type Product struct {
	ID          string          `json:"id" db:"id"`
	OwnerID     string          `json:"ownerId" db:"owner_id"`
	OwnerName   string          `json:"ownerName" db:"owner_name"`
	Name        string          `json:"name" db:"name"`
	Category    string          `json:"category" db:"category"`
	Description string          `json:"description" db:"description"`
	PricePerDay decimal.Decimal `json:"pricePerDay" db:"price_per_day"`
	PickUpPoint string          `json:"pickUpPoint" db:"pick_up_point"`
	ImageURL    string          `json:"imageUrl,omitempty" db:"image_url"`
	Status      string          `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

type ProductFilter struct {
	OwnerID  string
	Category string
	Status   string
}

type ProductUpdate struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	PricePerDay *decimal.Decimal `json:"pricePerDay"`
	PickUpPoint *string          `json:"pickUpPoint"`
	Status      *string          `json:"status"`
}
