package keeper_test

import (
	"testing"

	"onepass/internal/backup"
	"onepass/internal/keeper"
	"onepass/internal/testutil"
)

type fixture struct {
	svc       *keeper.Service
	clock     *testutil.StubClock
	store     *backup.MemoryStore
	clipboard *testutil.FakeClipboard
	dialogs   *testutil.StubDialogs
}

// newFixture builds a service over a fresh in-memory vault. idPrefix keeps
// ids distinct between fixtures in the same test.
func newFixture(t *testing.T, idPrefix string) *fixture {
	t.Helper()
	f := &fixture{
		clock:     testutil.FixedClock(),
		store:     testutil.NewTestBackupStore(),
		clipboard: &testutil.FakeClipboard{},
		dialogs:   &testutil.StubDialogs{},
	}
	db := testutil.NewTestDatabaseWithIDs(t, f.clock, testutil.NewPrefixedIDGenerator(idPrefix))
	f.svc = keeper.NewService(db, testutil.NewTestEncryptor(), f.store, f.dialogs, f.clipboard, nil, f.clock)
	return f
}

// newBareService builds a service with no optional collaborators.
func newBareService(t *testing.T) *keeper.Service {
	t.Helper()
	return keeper.NewService(testutil.NewTestDatabase(t, nil), nil, nil, nil, nil, nil, nil)
}
