package keeper

import (
	"time"
)

// CopyPassword puts the entry's password on the clipboard. It returns the
// delay after which the caller should run clear, taken from the
// clearClipboardSeconds setting. A zero delay means the clipboard is left alone
// and clear is a no-op.
//
// clear empties the clipboard only if it still holds the copied password, so
// anything the user copied in the meantime survives.
func (s *Service) CopyPassword(id string) (clear func() error, delay time.Duration, err error) {
	if s.clipboard == nil {
		return nil, 0, &Error{Kind: ErrValidation, Msg: "no clipboard available"}
	}

	entry, err := s.database.GetEntry(id)
	if err != nil {
		return nil, 0, err
	}
	settings, err := s.database.GetSettings()
	if err != nil {
		return nil, 0, err
	}

	if err := s.clipboard.WriteAll(entry.Password); err != nil {
		return nil, 0, Errorf(ErrIO, "writing clipboard: %w", err)
	}
	s.logger.Info("password copied", "id", id, "clear_after_seconds", settings.ClearClipboardSeconds)

	if settings.ClearClipboardSeconds == 0 {
		return func() error { return nil }, 0, nil
	}

	secret := entry.Password
	clear = func() error {
		current, err := s.clipboard.ReadAll()
		if err != nil {
			return Errorf(ErrIO, "reading clipboard: %w", err)
		}
		if current != secret {
			return nil
		}
		if err := s.clipboard.WriteAll(""); err != nil {
			return Errorf(ErrIO, "clearing clipboard: %w", err)
		}
		s.logger.Info("clipboard cleared", "id", id)
		return nil
	}
	return clear, time.Duration(settings.ClearClipboardSeconds) * time.Second, nil
}
