// Package memstore keeps every record in process memory. It backs the
// "memory" database driver and the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/repositories"
)

type state struct {
	users      map[string]models.User
	products   map[string]models.Product
	rentals    map[string]models.Rental
	categories map[string]models.Category
	ledger     []models.LedgerEntry
}

func newState() *state {
	return &state{
		users:      make(map[string]models.User),
		products:   make(map[string]models.Product),
		rentals:    make(map[string]models.Rental),
		categories: make(map[string]models.Category),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.rentals {
		c.rentals[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	c.ledger = append([]models.LedgerEntry(nil), s.ledger...)
	return c
}

type database struct {
	// txMu serialises transactions and writes made outside of them. Reads
	// outside a transaction share it so they never observe uncommitted data.
	txMu sync.RWMutex
	mu   sync.RWMutex
	data *state
}

// Store is an in-memory repositories.Store. Transactions are serialised and
// rolled back by restoring a snapshot taken when they began.
type Store struct {
	db   *database
	inTx bool
}

var _ repositories.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: &database{data: newState()}}
}

func (s *Store) Users() repositories.UserRepository          { return &userRepo{s} }
func (s *Store) Products() repositories.ProductRepository    { return &productRepo{s} }
func (s *Store) Rentals() repositories.RentalRepository      { return &rentalRepo{s} }
func (s *Store) Categories() repositories.CategoryRepository { return &categoryRepo{s} }
func (s *Store) Ledger() repositories.LedgerRepository       { return &ledgerRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	s.db.mu.RLock()
	snapshot := s.db.data.clone()
	s.db.mu.RUnlock()

	if err := fn(ctx, &Store{db: s.db, inTx: true}); err != nil {
		s.db.mu.Lock()
		s.db.data = snapshot
		s.db.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(context.Context) error {
	return nil
}

func (s *Store) read(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.db.txMu.RLock()
		defer s.db.txMu.RUnlock()
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return fn(s.db.data)
}

func (s *Store) write(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.db.txMu.Lock()
		defer s.db.txMu.Unlock()
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.data)
}

func sortByCreated[T any](items []T, key func(T) (int64, string)) {
	sort.Slice(items, func(i, j int) bool {
		ci, idi := key(items[i])
		cj, idj := key(items[j])
		if ci != cj {
			return ci < cj
		}
		return idi < idj
	})
}
