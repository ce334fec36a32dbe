package memstore

import (
	"context"

	"renTrentoBack/internal/models"
)

type ledgerRepo struct {
	s *Store
}

func (r *ledgerRepo) AppendEntries(ctx context.Context, entries ...models.LedgerEntry) error {
	return r.s.write(ctx, func(st *state) error {
		st.ledger = append(st.ledger, entries...)
		return nil
	})
}

func (r *ledgerRepo) ListEntriesByUser(ctx context.Context, userID string) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	err := r.s.read(ctx, func(st *state) error {
		for _, e := range st.ledger {
			if e.UserID == userID {
				entries = append(entries, e)
			}
		}
		return nil
	})
	return entries, err
}
