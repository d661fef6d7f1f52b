package store

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending migration for the driver's dialect.
// An up-to-date schema is not an error.
func Migrate(driver, dsn string) error {
	return withMigrator(driver, dsn, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// Rollback reverts the most recent migration.
func Rollback(driver, dsn string) error {
	return withMigrator(driver, dsn, func(m *migrate.Migrate) error {
		return m.Steps(-1)
	})
}

func withMigrator(driver, dsn string, run func(*migrate.Migrate) error) error {
	dir, url, err := migrationTarget(driver, dsn)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := run(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func migrationTarget(driver, dsn string) (dir, url string, err error) {
	switch driver {
	case DriverPostgres:
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return "", "", fmt.Errorf("postgres migrations need a postgres:// url")
		}
		return "migrations/postgres", dsn, nil
	case DriverSQLite:
		path, _, _ := strings.Cut(dsn, "?")
		return "migrations/sqlite3", "sqlite3://" + path, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}
