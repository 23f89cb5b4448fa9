// Package migrate applies the embedded schema with golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/vovakirdan/roomcast/internal/store/migrations"
)

// ErrNoChange is returned when the database is already at the target version.
var ErrNoChange = migrate.ErrNoChange

// Run applies migrations for driver ("sqlite" or "postgres") in direction
// ("up" or "down").
func Run(driver, dsn, direction string) error {
	if dsn == "" {
		return errors.New("database dsn is not set")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	databaseURL, err := DatabaseURL(driver, dsn)
	if err != nil {
		return err
	}

	sourceDriver, err := iofs.New(migrations.FS, driver)
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}

// DatabaseURL converts a store DSN into the URL golang-migrate expects.
func DatabaseURL(driver, dsn string) (string, error) {
	switch driver {
	case "sqlite":
		return "sqlite3://" + dsn, nil
	case "postgres":
		for _, prefix := range []string{"postgres://", "postgresql://"} {
			if rest, ok := strings.CutPrefix(dsn, prefix); ok {
				return "pgx5://" + rest, nil
			}
		}
		return "", fmt.Errorf("postgres dsn must start with postgres://")
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}
