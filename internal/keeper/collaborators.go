package keeper

import "io"

// FileDialogs is provided by the host UI. Each call blocks until the user
// picks a path or dismisses the dialog (ok == false).
type FileDialogs interface {
	// SaveFile asks for a destination path, proposing defaultName.
	SaveFile(title, defaultName string) (path string, ok bool, err error)

	// OpenFile asks for an existing file to read.
	OpenFile(title string) (path string, ok bool, err error)
}

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// Encryptor seals backup artifacts with a passphrase.
type Encryptor interface {
	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(passphrase string, r io.Reader, w io.Writer) error

	// Decrypt reads ciphertext from r and writes plaintext to w.
	// A wrong passphrase yields an error matching ErrWrongPassphrase.
	Decrypt(passphrase string, r io.Reader, w io.Writer) error
}

// BackupStore keeps encrypted export artifacts, addressed by name.
type BackupStore interface {
	// Put stores an artifact. size is the number of bytes that will be read from r.
	Put(name string, r io.Reader, size int64) error

	// Get writes the named artifact to w. Missing artifacts match ErrNotFound.
	Get(name string, w io.Writer) error

	// List returns the names of all stored artifacts.
	List() ([]string, error)

	// ValidateSetup verifies the store is reachable and writable.
	ValidateSetup() error
}
