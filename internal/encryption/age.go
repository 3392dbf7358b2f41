package encryption

import (
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
	"filippo.io/age/armor"

	"onepass/internal/keeper"
)

// minMaxWorkFactor is the scrypt work factor age accepts by default when
// decrypting. Files sealed with a larger configured factor still open.
const minMaxWorkFactor = 22

// AgeEncryptor implements keeper.Encryptor with age passphrase (scrypt)
// encryption. Output is ASCII-armored so backups survive text-only transports.
type AgeEncryptor struct {
	workFactor int
}

var _ keeper.Encryptor = (*AgeEncryptor)(nil)

// NewAgeEncryptor creates an AgeEncryptor. workFactor is the scrypt log2 work
// factor; zero or less keeps age's default.
func NewAgeEncryptor(workFactor int) *AgeEncryptor {
	return &AgeEncryptor{workFactor: workFactor}
}

// Encrypt reads plaintext from r and writes armored age ciphertext to w.
func (e *AgeEncryptor) Encrypt(passphrase string, r io.Reader, w io.Writer) error {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if e.workFactor > 0 {
		recipient.SetWorkFactor(e.workFactor)
	}

	armored := armor.NewWriter(w)
	encWriter, err := age.Encrypt(armored, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}
	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return fmt.Errorf("finalizing armor: %w", err)
	}
	return nil
}

// Decrypt reads armored age ciphertext from r and writes plaintext to w.
// A passphrase that does not open the file yields keeper.ErrWrongPassphrase.
func (e *AgeEncryptor) Decrypt(passphrase string, r io.Reader, w io.Writer) error {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt identity: %w", err)
	}
	identity.SetMaxWorkFactor(max(e.workFactor, minMaxWorkFactor))

	decReader, err := age.Decrypt(armor.NewReader(r), identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return keeper.ErrWrongPassphrase
		}
		return fmt.Errorf("creating decrypted reader: %w", err)
	}
	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	return nil
}
