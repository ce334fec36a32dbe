package sqlstore

import (
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"renTrentoBack/internal/models"
)

const (
	mysqlDuplicateEntry  = 1062
	postgresUniqueViolation = "23505"
)

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == postgresUniqueViolation
	}
	return false
}

// translate maps driver errors onto the repository sentinels and annotates
// everything with the failing operation.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return errors.Wrap(models.ErrNoRecord, op)
	case isDuplicateKeyError(err):
		return errors.Wrap(models.ErrDuplicate, op)
	default:
		return errors.Wrap(err, op)
	}
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n == 0 {
		return errors.Wrap(models.ErrNoRecord, op)
	}
	return nil
}
