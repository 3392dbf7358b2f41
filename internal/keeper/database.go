package keeper

import "onepass/internal/model"

// Database is the vault storage. Implementations serialize every call
// through a single lock, so no two operations run concurrently.
// Failures are returned as classified errors (see errors.go).
type Database interface {
	// Entry operations

	// ListEntries returns entries matching the filter, ordered by sort order
	// ascending and then by most recently updated.
	ListEntries(filter model.EntryFilter) ([]*model.Entry, error)

	// GetEntry returns a single entry or ErrNotFound.
	GetEntry(id string) (*model.Entry, error)

	// CreateEntry inserts a new entry with a generated id and current timestamps.
	CreateEntry(in model.CreateEntryInput) (*model.Entry, error)

	// UpdateEntry writes the fields set in patch and refreshes updatedAt.
	UpdateEntry(id string, patch model.EntryPatch) (*model.Entry, error)

	// DeleteEntry removes an entry. Deleting a missing id is not an error.
	DeleteEntry(id string) error

	// ToggleFavorite flips the favorite flag and returns the new value.
	ToggleFavorite(id string) (bool, error)

	// Group operations

	// ListGroups returns all groups ordered by sort order.
	ListGroups() ([]*model.Group, error)

	// CreateGroup appends a group after the current last one.
	// A nil icon selects model.DefaultGroupIcon.
	CreateGroup(name string, icon *string) (*model.Group, error)

	// UpdateGroup writes the fields set in patch and refreshes updatedAt.
	UpdateGroup(id string, patch model.GroupPatch) (*model.Group, error)

	// DeleteGroup detaches the group's entries and then removes the group.
	DeleteGroup(id string) error

	// EntryCountsByGroup maps each group id that has entries to its entry count.
	EntryCountsByGroup() (map[string]int, error)

	// Settings operations

	// GetSettings returns the stored settings, defaulting missing or malformed keys.
	GetSettings() (model.Settings, error)

	// UpdateSettings stores all settings.
	UpdateSettings(settings model.Settings) error

	// MasterPasswordHash returns the stored hash and whether one exists.
	MasterPasswordHash() (string, bool, error)

	// SetMasterPasswordHash stores (or replaces) the master password hash.
	SetMasterPasswordHash(hash string) error

	// Snapshot operations

	// LoadSnapshot reads every group and entry, both ordered by sort order.
	LoadSnapshot() ([]model.Group, []model.Entry, error)

	// ImportSnapshot inserts groups and entries in one transaction, skipping
	// ids that already exist. Unless merge is true, existing data is removed first.
	ImportSnapshot(groups []model.Group, entries []model.Entry, merge bool) (model.ImportResult, error)

	// Close closes the database connection.
	Close() error
}
