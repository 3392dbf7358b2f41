package testutil

import (
	"onepass/internal/backup"
	"onepass/internal/encryption"
	"onepass/internal/keeper"
)

// NewTestEncryptor creates a fast, deterministic encryptor for testing.
func NewTestEncryptor() keeper.Encryptor {
	return encryption.NewTestEncryptor()
}

// NewTestBackupStore creates a new in-memory backup store for testing.
func NewTestBackupStore() *backup.MemoryStore {
	return backup.NewMemoryStore("test-backups")
}
