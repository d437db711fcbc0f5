package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/coachlab/internal/db"
	"github.com/stretchr/testify/require"
)

// NewTestDB opens a private in-memory coachlab database with the course,
// catalog and enrollment schema applied. It is closed at test cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err, "opening in-memory database")
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// NewTestUoW wraps database in the same unit of work the entity store uses
// in production.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
