package backup

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"onepass/internal/keeper"
)

// MemoryStore keeps backups in memory. It is useful for tests and for the
// "memory" backup type. Safe for concurrent use.
type MemoryStore struct {
	name    string
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{name: name, objects: make(map[string][]byte)}
}

// Put stores the artifact, replacing any previous one with the same name.
func (m *MemoryStore) Put(name string, r io.Reader, size int64) error {
	if err := validateName(name); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = data
	return nil
}

// Get writes the named artifact to w.
func (m *MemoryStore) Get(name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[name]
	if !ok {
		return notFound(name)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// List returns stored names in lexical order.
func (m *MemoryStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.objects))
	for n := range m.objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup always succeeds for an in-memory store.
func (m *MemoryStore) ValidateSetup() error {
	return nil
}

var _ keeper.BackupStore = (*MemoryStore)(nil)
