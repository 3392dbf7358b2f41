package testutil

import (
	"testing"

	"onepass/internal/database"
	"onepass/internal/keeper"
)

// NewTestDatabase creates a migrated, bootstrapped in-memory vault using
// clock and sequential ids. A nil clock selects FixedClock.
// The database is closed when the test completes.
func NewTestDatabase(t *testing.T, clock keeper.Clock) *database.SQLiteDatabase {
	t.Helper()
	return NewTestDatabaseWithIDs(t, clock, NewStubIDGenerator())
}

// NewTestDatabaseWithIDs is NewTestDatabase with a caller-supplied id generator.
func NewTestDatabaseWithIDs(t *testing.T, clock keeper.Clock, idgen keeper.IDGenerator) *database.SQLiteDatabase {
	t.Helper()

	if clock == nil {
		clock = FixedClock()
	}
	db, err := database.NewSQLiteDatabase(":memory:", clock, idgen)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
