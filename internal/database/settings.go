package database

import (
	"strconv"

	"onepass/internal/keeper"
	"onepass/internal/model"
)

// Keys in the settings table.
const (
	keyAutoLockMinutes       = "auto_lock_minutes"
	keyClearClipboardSeconds = "clear_clipboard_seconds"
	keyTheme                 = "theme"
	keyMasterPasswordHash    = "master_password_hash"
)

const upsertSetting = `INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func settingRows(st model.Settings) [][2]string {
	return [][2]string{
		{keyAutoLockMinutes, strconv.Itoa(st.AutoLockMinutes)},
		{keyClearClipboardSeconds, strconv.Itoa(st.ClearClipboardSeconds)},
		{keyTheme, st.Theme},
	}
}

func defaultSettingRows() [][2]string {
	return settingRows(model.DefaultSettings())
}

// GetSettings reads the user settings. Missing or malformed values fall back
// to their defaults.
func (s *SQLiteDatabase) GetSettings() (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT key, value FROM settings WHERE key IN (?, ?, ?)",
		keyAutoLockMinutes, keyClearClipboardSeconds, keyTheme)
	if err != nil {
		return model.Settings{}, keeper.StorageError("reading settings", err)
	}
	defer rows.Close()

	st := model.DefaultSettings()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.Settings{}, keeper.StorageError("scanning setting", err)
		}
		switch key {
		case keyAutoLockMinutes:
			if n, ok := parseDuration(value); ok {
				st.AutoLockMinutes = n
			}
		case keyClearClipboardSeconds:
			if n, ok := parseDuration(value); ok {
				st.ClearClipboardSeconds = n
			}
		case keyTheme:
			st.Theme = value
		}
	}
	if err := rows.Err(); err != nil {
		return model.Settings{}, keeper.StorageError("reading settings", err)
	}
	return st, nil
}

func parseDuration(v string) (int, bool) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// UpdateSettings writes all three settings in one transaction.
func (s *SQLiteDatabase) UpdateSettings(st model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return keeper.StorageError("starting transaction", err)
	}
	defer tx.Rollback()

	for _, kv := range settingRows(st) {
		if _, err := tx.Exec(upsertSetting, kv[0], kv[1]); err != nil {
			return keeper.StorageError("writing setting "+kv[0], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return keeper.StorageError("committing settings", err)
	}
	return nil
}

// MasterPasswordHash returns the stored bcrypt hash and whether one exists.
func (s *SQLiteDatabase) MasterPasswordHash() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hash string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", keyMasterPasswordHash).Scan(&hash)
	if isNoRows(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, keeper.StorageError("reading master password hash", err)
	}
	return hash, true, nil
}

// SetMasterPasswordHash stores hash, replacing any previous one.
func (s *SQLiteDatabase) SetMasterPasswordHash(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(upsertSetting, keyMasterPasswordHash, hash); err != nil {
		return keeper.StorageError("writing master password hash", err)
	}
	return nil
}
