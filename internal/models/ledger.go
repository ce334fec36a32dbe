package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LedgerTopUp            = "TOPUP"
	LedgerRentalCharge     = "RENTAL_CHARGE"
	LedgerRentalAdjustment = "RENTAL_ADJUSTMENT"
	LedgerRentalRefund     = "RENTAL_REFUND"
)

// LedgerEntry records one side of a wallet movement.
type LedgerEntry struct {
	ID           string          `json:"id" db:"id"`
	UserID       string          `json:"userId" db:"user_id"`
	RentalID     string          `json:"rentalId,omitempty" db:"rental_id"`
	Kind         string          `json:"kind" db:"kind"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter" db:"balance_after"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}
