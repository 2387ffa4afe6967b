package repository

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration for the connected dialect.
// Running it against an up-to-date schema is a no-op.
func Migrate(db *DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	dir := "migrations/" + db.Driver
	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	var driver database.Driver
	switch db.Driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(db.SQL, &postgres.Config{})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db.SQL, &sqlite.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", db.Driver)
	}
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}

	// m.Close would close db.SQL as well; the caller owns it.
	m, err := migrate.NewWithInstance("iofs", source, db.Driver, driver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("database migration is dirty", "version", version)
	} else {
		logger.Info("database migrations applied", "version", version)
	}
	return nil
}
