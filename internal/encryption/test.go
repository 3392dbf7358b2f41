package encryption

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"onepass/internal/keeper"
)

// testHeaderPrefix starts the first line of TestEncryptor output.
const testHeaderPrefix = "ONEPASS-TEST "

// TestEncryptor is a fast, deterministic encryptor for testing. It writes a
// header line holding a digest of the passphrase, followed by the plaintext.
// Decrypt checks the digest, so wrong-passphrase handling can be tested
// without paying for scrypt.
type TestEncryptor struct{}

var _ keeper.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func passphraseDigest(passphrase string) string {
	sum := sha256.Sum256([]byte(passphrase))
	return hex.EncodeToString(sum[:])
}

func (e *TestEncryptor) Encrypt(passphrase string, r io.Reader, w io.Writer) error {
	if _, err := io.WriteString(w, testHeaderPrefix+passphraseDigest(passphrase)+"\n"); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Decrypt(passphrase string, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	digest, ok := strings.CutPrefix(strings.TrimSuffix(header, "\n"), testHeaderPrefix)
	if !ok {
		return fmt.Errorf("invalid test encryption header")
	}
	if digest != passphraseDigest(passphrase) {
		return keeper.ErrWrongPassphrase
	}
	if _, err := io.Copy(w, br); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
