package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Services with their own schema.
const (
	ServiceOrders    = "orders"
	ServiceInventory = "inventory"
)

// MigrationsSource returns the file source holding the schema of service for dbDriver.
func MigrationsSource(service, dbDriver string) (string, error) {
	if service != ServiceOrders && service != ServiceInventory {
		return "", fmt.Errorf("unknown service: %s (valid options: orders, inventory)", service)
	}

	dbType := "postgresql"
	if dbDriver == "mysql" {
		dbType = "mysql"
	}
	return fmt.Sprintf("file://migrations/%s/%s", service, dbType), nil
}

// RunMigrations applies all pending migrations of service. The orders and inventory
// services own separate databases, so each is migrated on its own. Returns nil when
// there is nothing to apply.
func RunMigrations(logger *slog.Logger, service, dbDriver, dbConnectionString string) error {
	migrationsPath, err := MigrationsSource(service, dbDriver)
	if err != nil {
		return err
	}

	logger.Info("running database migrations",
		slog.String("service", service),
		slog.String("driver", dbDriver),
	)

	m, err := migrate.New(migrationsPath, dbConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully", slog.String("service", service))
	return nil
}
