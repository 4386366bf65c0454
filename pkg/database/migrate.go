package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/harborcrew/boatmarket/pkg/config"
)

// RunMigrations applies all pending schema migrations from the configured directory.
// A database that is already up to date is not an error.
func RunMigrations(cfg *config.DatabaseConfig) error {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", cfg.MigrationsDir),
		cfg.MigrateURL(),
	)
	if err != nil {
		return fmt.Errorf("unable to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	return nil
}
