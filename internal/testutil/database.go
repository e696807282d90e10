// Package testutil provides helpers shared by repository and migration tests.
//
// Repository tests run against go-sqlmock:
//
//	db, mock := testutil.NewMockDB(t)
//	mock.ExpectExec(`INSERT INTO products`).WillReturnResult(sqlmock.NewResult(0, 1))
//
// Expectations are verified automatically when the test finishes.
package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewMockDB returns a sqlmock-backed *sql.DB. Queries are matched as regular
// expressions against the executed SQL. Unmet expectations fail the test on cleanup.
func NewMockDB(t testing.TB) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return db, mock
}

// BinaryUUID returns the BINARY(16) representation MySQL repositories bind.
func BinaryUUID(t testing.TB, id uuid.UUID) []byte {
	t.Helper()
	b, err := id.MarshalBinary()
	require.NoError(t, err)
	return b
}

// MigrationsPath walks up from the working directory until it finds
// migrations/<service>/<dbType> and returns its absolute path.
func MigrationsPath(service, dbType string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, "migrations", service, dbType)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("migrations/%s/%s not found", service, dbType)
		}
		dir = parent
	}
}
