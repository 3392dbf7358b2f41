package database

import (
	"fmt"

	"onepass/internal/config"
)

// NewDatabaseFromConfig opens the vault selected by cfg.Database.
func NewDatabaseFromConfig(cfg *config.Config) (*SQLiteDatabase, error) {
	switch cfg.Database.Type {
	case "sqlite":
		if cfg.Database.Path == "" && cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLiteDatabase(cfg.DatabasePath(), nil, nil)
	case "memory":
		return NewSQLiteDatabase(":memory:", nil, nil)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Database.Type)
	}
}
