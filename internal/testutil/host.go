package testutil

import (
	"errors"
	"sync"
)

// FakeClipboard is an in-memory clipboard. Safe for concurrent use.
type FakeClipboard struct {
	mu      sync.Mutex
	content string
	writes  int

	// FailWrites makes every WriteAll fail.
	FailWrites bool
}

func (c *FakeClipboard) ReadAll() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content, nil
}

func (c *FakeClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWrites {
		return errors.New("clipboard unavailable")
	}
	c.content = text
	c.writes++
	return nil
}

// Content returns the current clipboard text.
func (c *FakeClipboard) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// Writes returns how many successful writes happened.
func (c *FakeClipboard) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// StubDialogs answers file dialogs with fixed paths. An empty path means the
// user dismissed the dialog.
type StubDialogs struct {
	SavePath string
	OpenPath string
	Err      error

	// LastDefaultName records the name proposed to the last SaveFile call.
	LastDefaultName string
}

func (d *StubDialogs) SaveFile(title, defaultName string) (string, bool, error) {
	d.LastDefaultName = defaultName
	if d.Err != nil {
		return "", false, d.Err
	}
	return d.SavePath, d.SavePath != "", nil
}

func (d *StubDialogs) OpenFile(title string) (string, bool, error) {
	if d.Err != nil {
		return "", false, d.Err
	}
	return d.OpenPath, d.OpenPath != "", nil
}
