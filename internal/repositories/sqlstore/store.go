// Package sqlstore implements the repositories on MySQL or PostgreSQL
// through sqlx. Queries are written with '?' placeholders and rebound for
// the active driver.
package sqlstore

import (
	"context"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"renTrentoBack/internal/repositories"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
)

type Store struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

var _ repositories.Store = (*Store)(nil)

// Open connects to dsn with the named driver and verifies the connection.
// MySQL DSNs must carry parseTime=true.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverMySQL && driver != DriverPostgres {
		return nil, errors.Errorf("sqlstore: unsupported driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore: open")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlstore: ping")
	}
	return New(db), nil
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Users() repositories.UserRepository          { return &UserRepository{q: s.q} }
func (s *Store) Products() repositories.ProductRepository    { return &ProductRepository{q: s.q} }
func (s *Store) Rentals() repositories.RentalRepository      { return &RentalRepository{q: s.q} }
func (s *Store) Categories() repositories.CategoryRepository { return &CategoryRepository{q: s.q} }
func (s *Store) Ledger() repositories.LedgerRepository       { return &LedgerRepository{q: s.q} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) (err error) {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlstore: begin")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &Store{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "sqlstore: commit")
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}
