package sqlstore

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies (or, with down set, reverts) the embedded schema
// migrations. It uses its own connection pool and closes it when done.
func Migrate(driver, dsn string, down bool) error {
	dir, err := migrationsDir(driver)
	if err != nil {
		return err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return errors.Wrap(err, "migrate: open")
	}

	var target database.Driver
	switch driver {
	case DriverMySQL:
		target, err = migratemysql.WithInstance(db.DB, &migratemysql.Config{})
	case DriverPostgres:
		target, err = migratepgx.WithInstance(db.DB, &migratepgx.Config{})
	}
	if err != nil {
		_ = db.Close()
		return errors.Wrap(err, "migrate: database driver")
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		_ = db.Close()
		return errors.Wrap(err, "migrate: source")
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		_ = db.Close()
		return errors.Wrap(err, "migrate: init")
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate: apply")
	}
	return nil
}

func migrationsDir(driver string) (string, error) {
	switch driver {
	case DriverMySQL:
		return "migrations/mysql", nil
	case DriverPostgres:
		return "migrations/postgres", nil
	default:
		return "", errors.Errorf("migrate: unsupported driver %q", driver)
	}
}
