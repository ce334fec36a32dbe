package sqlstore

import (
	"context"

	"github.com/jmoiron/sqlx"

	"renTrentoBack/internal/models"
)

type LedgerRepository struct {
	q sqlx.ExtContext
}

func (r *LedgerRepository) AppendEntries(ctx context.Context, entries ...models.LedgerEntry) error {
	query := r.q.Rebind(`
		INSERT INTO wallet_entries (id, user_id, rental_id, kind, amount, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	for _, e := range entries {
		_, err := r.q.ExecContext(ctx, query, e.ID, e.UserID, e.RentalID, e.Kind, e.Amount, e.BalanceAfter, e.CreatedAt)
		if err != nil {
			return translate(err, "append wallet entry")
		}
	}
	return nil
}

func (r *LedgerRepository) ListEntriesByUser(ctx context.Context, userID string) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	query := r.q.Rebind(`
		SELECT id, user_id, rental_id, kind, amount, balance_after, created_at
		FROM wallet_entries
		WHERE user_id = ?
		ORDER BY created_at, id
	`)
	if err := sqlx.SelectContext(ctx, r.q, &entries, query, userID); err != nil {
		return nil, translate(err, "list wallet entries")
	}
	return entries, nil
}
