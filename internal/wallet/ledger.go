// Package wallet moves money between user wallets. Every movement updates
// the balances and appends ledger entries inside the caller's transaction.
package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/repositories"
)

// Transfer describes a signed movement: the payee gains Amount and the payer
// loses it. A negative Amount moves money the other way.
type Transfer struct {
	PayerID  string
	PayeeID  string
	RentalID string
	Kind     string
	Amount   decimal.Decimal
}

// Balances are the wallets after a transfer.
type Balances struct {
	Payer decimal.Decimal
	Payee decimal.Decimal
}

type Ledger struct {
	Now func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{Now: func() time.Time { return time.Now().UTC() }}
}

// LockParties locks both users in id order and returns them as payer, payee.
// Callers that need to check funds before applying a delta use it first.
func (l *Ledger) LockParties(ctx context.Context, tx repositories.Store, payerID, payeeID string) (models.User, models.User, error) {
	first, second := payerID, payeeID
	if second < first {
		first, second = second, first
	}
	a, err := tx.Users().GetUserByIDForUpdate(ctx, first)
	if err != nil {
		return models.User{}, models.User{}, errors.Wrapf(err, "wallet: lock user %s", first)
	}
	b := a
	if second != first {
		b, err = tx.Users().GetUserByIDForUpdate(ctx, second)
		if err != nil {
			return models.User{}, models.User{}, errors.Wrapf(err, "wallet: lock user %s", second)
		}
	}
	if a.ID == payerID {
		return a, b, nil
	}
	return b, a, nil
}

// ApplyDelta applies t. It does not check that the payer can afford it.
func (l *Ledger) ApplyDelta(ctx context.Context, tx repositories.Store, t Transfer) (Balances, error) {
	payer, payee, err := l.LockParties(ctx, tx, t.PayerID, t.PayeeID)
	if err != nil {
		return Balances{}, err
	}
	if t.Amount.IsZero() || payer.ID == payee.ID {
		return Balances{Payer: payer.Wallet, Payee: payee.Wallet}, nil
	}

	payerBalance := payer.Wallet.Sub(t.Amount)
	payeeBalance := payee.Wallet.Add(t.Amount)
	if err := tx.Users().UpdateWallet(ctx, payer.ID, payerBalance); err != nil {
		return Balances{}, errors.Wrap(err, "wallet: debit payer")
	}
	if err := tx.Users().UpdateWallet(ctx, payee.ID, payeeBalance); err != nil {
		return Balances{}, errors.Wrap(err, "wallet: credit payee")
	}

	now := l.Now()
	err = tx.Ledger().AppendEntries(ctx,
		models.LedgerEntry{
			ID:           uuid.NewString(),
			UserID:       payer.ID,
			RentalID:     t.RentalID,
			Kind:         t.Kind,
			Amount:       t.Amount.Neg(),
			BalanceAfter: payerBalance,
			CreatedAt:    now,
		},
		models.LedgerEntry{
			ID:           uuid.NewString(),
			UserID:       payee.ID,
			RentalID:     t.RentalID,
			Kind:         t.Kind,
			Amount:       t.Amount,
			BalanceAfter: payeeBalance,
			CreatedAt:    now,
		},
	)
	if err != nil {
		return Balances{}, errors.Wrap(err, "wallet: append entries")
	}
	return Balances{Payer: payerBalance, Payee: payeeBalance}, nil
}

// TopUp credits amount to a single wallet.
func (l *Ledger) TopUp(ctx context.Context, tx repositories.Store, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	user, err := tx.Users().GetUserByIDForUpdate(ctx, userID)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "wallet: lock user %s", userID)
	}
	balance := user.Wallet.Add(amount)
	if err := tx.Users().UpdateWallet(ctx, userID, balance); err != nil {
		return decimal.Zero, errors.Wrap(err, "wallet: top up")
	}
	err = tx.Ledger().AppendEntries(ctx, models.LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Kind:         models.LedgerTopUp,
		Amount:       amount,
		BalanceAfter: balance,
		CreatedAt:    l.Now(),
	})
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "wallet: append entry")
	}
	return balance, nil
}
