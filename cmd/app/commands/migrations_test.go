package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsSource(t *testing.T) {
	tests := []struct {
		service  string
		driver   string
		expected string
	}{
		{ServiceOrders, "postgres", "file://migrations/orders/postgresql"},
		{ServiceOrders, "mysql", "file://migrations/orders/mysql"},
		{ServiceInventory, "postgres", "file://migrations/inventory/postgresql"},
		{ServiceInventory, "mysql", "file://migrations/inventory/mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.service+"/"+tt.driver, func(t *testing.T) {
			source, err := MigrationsSource(tt.service, tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, source)
		})
	}

	_, err := MigrationsSource("billing", "postgres")
	assert.ErrorContains(t, err, "unknown service: billing")
}

func TestRunMigrations(t *testing.T) {
	logger := discardLogger()

	t.Run("unknown-service", func(t *testing.T) {
		err := RunMigrations(logger, "billing", "postgres", "postgres://localhost")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown service")
	})

	t.Run("invalid-connection-string", func(t *testing.T) {
		err := RunMigrations(logger, ServiceOrders, "postgres", "invalid-connection-string")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create migrate instance")
	})
}
