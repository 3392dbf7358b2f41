package keeper

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the minimum master password length in characters.
	MinPasswordLength = 4

	// bcryptCost is the work factor for master password hashes.
	bcryptCost = 10

	// bcryptMaxBytes is the longest input bcrypt accepts.
	bcryptMaxBytes = 72
)

// CheckInitialized reports whether a master password has been set.
// A storage failure is reported as "not initialized".
func (s *Service) CheckInitialized() bool {
	_, ok, err := s.database.MasterPasswordHash()
	if err != nil {
		s.logger.Warn("reading master password hash", "error", err)
		return false
	}
	return ok
}

// SetupPassword hashes and stores the master password. Running it on an
// initialized vault replaces the existing password; refusing that is up to
// the caller.
func (s *Service) SetupPassword(password string) error {
	hash, err := hashPassword(password, bcryptCost)
	if err != nil {
		return err
	}
	if err := s.database.SetMasterPasswordHash(hash); err != nil {
		return err
	}
	s.logger.Info("master password set")
	return nil
}

// VerifyPassword compares password against the stored hash. It fails with
// ErrNotInitialized when no hash exists. Any comparison failure, including a
// corrupt stored hash, is reported as a mismatch.
func (s *Service) VerifyPassword(password string) (bool, error) {
	hash, ok, err := s.database.MasterPasswordHash()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrNotInitialized
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

// ChangePassword replaces the master password after verifying the old one.
//
// Verification and the write take the storage lock separately, so a
// concurrent password change between the two steps is not detected.
func (s *Service) ChangePassword(oldPassword, newPassword string) error {
	valid, err := s.VerifyPassword(oldPassword)
	if err != nil {
		return err
	}
	if !valid {
		s.logger.Warn("password change rejected", "reason", "incorrect old password")
		return ErrWrongOldPassword
	}

	hash, err := hashPassword(newPassword, bcryptCost)
	if err != nil {
		return err
	}
	if err := s.database.SetMasterPasswordHash(hash); err != nil {
		return err
	}
	s.logger.Info("master password changed")
	return nil
}

// Unlock verifies the master password and starts an unlocked session using
// the stored auto-lock setting.
func (s *Service) Unlock(password string) error {
	valid, err := s.VerifyPassword(password)
	if err != nil {
		return err
	}
	if !valid {
		return &Error{Kind: ErrAuth, Msg: "incorrect master password"}
	}

	settings, err := s.database.GetSettings()
	if err != nil {
		return err
	}
	s.session.Unlock(settings.AutoLockMinutes)
	s.logger.Info("vault unlocked", "auto_lock_minutes", settings.AutoLockMinutes)
	return nil
}

// Lock ends the unlocked session.
func (s *Service) Lock() {
	s.session.Lock()
	s.logger.Info("vault locked")
}

func hashPassword(password string, cost int) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > bcryptMaxBytes {
		return "", &Error{Kind: ErrValidation, Msg: "password must not exceed 72 bytes"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", &Error{Kind: ErrIO, Msg: "hashing master password", Err: err}
	}
	return string(hash), nil
}
