package keeper

import (
	"onepass/internal/model"
)

// Service is the operation surface the UI (or the CLI) calls into.
// It owns no storage state of its own: everything persistent goes through
// the Database, which serializes access behind a single lock.
type Service struct {
	database  Database
	encryptor Encryptor
	backups   BackupStore
	dialogs   FileDialogs
	clipboard Clipboard
	logger    Logger
	clock     Clock
	session   *Session
}

// NewService creates a Service with the provided dependencies.
// encryptor, backups, dialogs and clipboard may be nil; operations that need
// a missing collaborator fail with ErrValidation.
func NewService(database Database, encryptor Encryptor, backups BackupStore, dialogs FileDialogs, clipboard Clipboard, logger Logger, clock Clock) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Service{
		database:  database,
		encryptor: encryptor,
		backups:   backups,
		dialogs:   dialogs,
		clipboard: clipboard,
		logger:    logger,
		clock:     clock,
		session:   NewSession(clock),
	}
}

// Session returns the unlock session tracked by this service.
func (s *Service) Session() *Session { return s.session }

// Entries

func (s *Service) ListEntries(filter model.EntryFilter) ([]*model.Entry, error) {
	return s.database.ListEntries(filter)
}

func (s *Service) GetEntry(id string) (*model.Entry, error) {
	return s.database.GetEntry(id)
}

func (s *Service) CreateEntry(in model.CreateEntryInput) (*model.Entry, error) {
	e, err := s.database.CreateEntry(in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("entry created", "id", e.ID)
	return e, nil
}

func (s *Service) UpdateEntry(id string, patch model.EntryPatch) (*model.Entry, error) {
	e, err := s.database.UpdateEntry(id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("entry updated", "id", id)
	return e, nil
}

func (s *Service) DeleteEntry(id string) error {
	if err := s.database.DeleteEntry(id); err != nil {
		return err
	}
	s.logger.Info("entry deleted", "id", id)
	return nil
}

func (s *Service) ToggleFavorite(id string) (bool, error) {
	return s.database.ToggleFavorite(id)
}

// Groups

func (s *Service) ListGroups() ([]*model.Group, error) {
	return s.database.ListGroups()
}

func (s *Service) CreateGroup(name string, icon *string) (*model.Group, error) {
	g, err := s.database.CreateGroup(name, icon)
	if err != nil {
		return nil, err
	}
	s.logger.Info("group created", "id", g.ID, "sort_order", g.SortOrder)
	return g, nil
}

func (s *Service) UpdateGroup(id string, patch model.GroupPatch) (*model.Group, error) {
	g, err := s.database.UpdateGroup(id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("group updated", "id", id)
	return g, nil
}

func (s *Service) DeleteGroup(id string) error {
	if err := s.database.DeleteGroup(id); err != nil {
		return err
	}
	s.logger.Info("group deleted", "id", id)
	return nil
}

func (s *Service) EntryCountsByGroup() (map[string]int, error) {
	return s.database.EntryCountsByGroup()
}

// Settings

func (s *Service) GetSettings() (model.Settings, error) {
	return s.database.GetSettings()
}

// UpdateSettings stores the full settings triple. Partial updates are not
// supported: read with GetSettings, modify, and write back.
func (s *Service) UpdateSettings(settings model.Settings) error {
	if settings.AutoLockMinutes < 0 || settings.ClearClipboardSeconds < 0 {
		return &Error{Kind: ErrValidation, Msg: "settings durations must not be negative"}
	}
	if err := s.database.UpdateSettings(settings); err != nil {
		return err
	}
	s.session.SetAutoLock(settings.AutoLockMinutes)
	s.logger.Info("settings updated",
		"auto_lock_minutes", settings.AutoLockMinutes,
		"clear_clipboard_seconds", settings.ClearClipboardSeconds,
		"theme", settings.Theme)
	return nil
}
