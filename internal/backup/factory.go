package backup

import (
	"context"
	"fmt"

	"onepass/internal/config"
	"onepass/internal/keeper"
)

// NewStoreFromConfig creates a BackupStore based on the backup config type.
func NewStoreFromConfig(ctx context.Context, cfg config.BackupConfig) (keeper.BackupStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(cfg.Name), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem backup store requires fs_root to be set")
		}
		store, err := NewFileSystemStore(cfg.Name, cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 backup store requires s3_bucket to be set")
		}
		store, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backup type: %s", cfg.Type)
	}
}
