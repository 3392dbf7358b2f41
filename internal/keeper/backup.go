package keeper

import (
	"bytes"
	"sort"
	"strings"

	"onepass/internal/model"
)

const (
	backupPrefix = "onepass-"
	backupSuffix = ".json.age"
)

// CreateBackup exports the vault, encrypts it with the master password and
// stores it in the backup store. It returns the artifact name.
func (s *Service) CreateBackup(masterPassword string) (string, error) {
	if err := s.requireBackups(); err != nil {
		return "", err
	}
	valid, err := s.VerifyPassword(masterPassword)
	if err != nil {
		return "", err
	}
	if !valid {
		return "", &Error{Kind: ErrAuth, Msg: "incorrect master password"}
	}

	plain, err := s.ExportJSON()
	if err != nil {
		return "", err
	}

	var sealed bytes.Buffer
	if err := s.encryptor.Encrypt(masterPassword, bytes.NewReader(plain), &sealed); err != nil {
		return "", Errorf(ErrIO, "encrypting backup: %w", err)
	}

	name := backupPrefix + s.clock.Now().UTC().Format("20060102T150405Z") + backupSuffix
	if err := s.backups.Put(name, &sealed, int64(sealed.Len())); err != nil {
		return "", Errorf(ErrIO, "storing backup %s: %w", name, err)
	}
	s.logger.Info("backup created", "name", name)
	return name, nil
}

// ListBackups returns stored backup names, newest first.
func (s *Service) ListBackups() ([]string, error) {
	if err := s.requireBackups(); err != nil {
		return nil, err
	}
	names, err := s.backups.List()
	if err != nil {
		return nil, Errorf(ErrIO, "listing backups: %w", err)
	}
	var result []string
	for _, n := range names {
		if strings.HasPrefix(n, backupPrefix) && strings.HasSuffix(n, backupSuffix) {
			result = append(result, n)
		}
	}
	// Names embed a sortable UTC timestamp.
	sort.Sort(sort.Reverse(sort.StringSlice(result)))
	return result, nil
}

// RestoreBackup decrypts a stored backup with passphrase (the master
// password at the time the backup was made) and imports it.
func (s *Service) RestoreBackup(name, passphrase string, merge bool) (model.ImportResult, error) {
	if err := s.requireBackups(); err != nil {
		return model.ImportResult{}, err
	}

	var sealed bytes.Buffer
	if err := s.backups.Get(name, &sealed); err != nil {
		if KindOf(err) != nil {
			return model.ImportResult{}, err
		}
		return model.ImportResult{}, Errorf(ErrIO, "fetching backup %s: %w", name, err)
	}

	var plain bytes.Buffer
	if err := s.encryptor.Decrypt(passphrase, &sealed, &plain); err != nil {
		if KindOf(err) != nil {
			return model.ImportResult{}, err
		}
		return model.ImportResult{}, Errorf(ErrFormat, "decrypting backup %s: %w", name, err)
	}

	res, err := s.ImportJSON(plain.Bytes(), merge)
	if err != nil {
		return model.ImportResult{}, err
	}
	s.logger.Info("backup restored", "name", name, "merge", merge)
	return res, nil
}

func (s *Service) requireBackups() error {
	if s.backups == nil || s.encryptor == nil {
		return &Error{Kind: ErrValidation, Msg: "no backup store configured"}
	}
	return nil
}
