package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"onepass/internal/backup"
	"onepass/internal/config"
	"onepass/internal/database"
	"onepass/internal/encryption"
	"onepass/internal/keeper"
	"onepass/internal/model"
)

// Host carries the UI collaborators the service calls back into.
// Either may be nil.
type Host struct {
	Dialogs   keeper.FileDialogs
	Clipboard keeper.Clipboard
}

// App is the application layer between the CLI and keeper.Service.
// It constructs all dependencies from config and manages the database
// and log file lifecycle on Close.
type App struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	backups keeper.BackupStore
	service *keeper.Service
	op      *Operation
	logger  *slog.Logger
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "EntryAdd", "Import").
// The caller must call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, operation string, host Host) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	store, err := backup.NewStoreFromConfig(ctx, cfg.Backup)
	if err != nil {
		return nil, fmt.Errorf("creating backup store: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	op := NewOperation(operation, time.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, cfg.LogStderr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := keeper.NewService(db, enc, store, host.Dialogs, host.Clipboard, &slogAdapter{l: logger}, keeper.RealClock{})
	logger.Debug("operation started", "database", cfg.Database.Type, "backup_store", cfg.Backup.Name)

	return &App{
		cfg:     cfg,
		db:      db,
		backups: store,
		service: svc,
		op:      op,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// Service returns the vault operations.
func (a *App) Service() *keeper.Service { return a.service }

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Fail marks the running operation as failed; Close logs the outcome.
func (a *App) Fail(err error) {
	a.op.Fail()
	a.logger.Error("operation failed", "error", err)
}

// CheckBackupStore verifies the configured backup store is usable.
func (a *App) CheckBackupStore() error {
	if err := a.backups.ValidateSetup(); err != nil {
		return fmt.Errorf("backup store %s: %w", a.cfg.Backup.Name, err)
	}
	return nil
}

// Import replaces or merges the vault with a JSON snapshot. Before an
// overwrite of a file-backed vault, the current database is copied next to
// it so the previous state can be recovered by hand.
func (a *App) Import(data []byte, merge bool) (model.ImportResult, error) {
	if err := a.saveSafetyCopy(merge); err != nil {
		return model.ImportResult{}, err
	}
	return a.service.ImportJSON(data, merge)
}

// RestoreBackup restores a stored backup, taking the same pre-import copy
// as Import when the restore overwrites the vault.
func (a *App) RestoreBackup(name, passphrase string, merge bool) (model.ImportResult, error) {
	if err := a.saveSafetyCopy(merge); err != nil {
		return model.ImportResult{}, err
	}
	return a.service.RestoreBackup(name, passphrase, merge)
}

func (a *App) saveSafetyCopy(merge bool) error {
	if merge || a.cfg.Database.Type != "sqlite" {
		return nil
	}
	dest, err := a.safetyCopyPath()
	if err != nil {
		return err
	}
	if err := a.db.BackupTo(dest); err != nil {
		return fmt.Errorf("saving pre-import copy: %w", err)
	}
	a.logger.Info("pre-import copy saved", "path", dest)
	return nil
}

func (a *App) safetyCopyPath() (string, error) {
	dest := filepath.Join(filepath.Dir(a.db.Path()), "pre-import-"+a.op.StartedAt.UTC().Format("20060102T150405Z")+".db")
	// VACUUM INTO refuses to overwrite an existing file.
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("removing stale pre-import copy: %w", err)
	}
	return dest, nil
}

// Close logs the outcome of the operation and releases the database and
// log file.
func (a *App) Close() error {
	var firstErr error

	a.logger.Info("operation finished", "status", a.op.Status, "duration", time.Since(a.op.StartedAt).Truncate(time.Millisecond))

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
