package keeper

import (
	"sync"
	"time"
)

// Session tracks whether the vault is unlocked and locks it after a period
// without activity. It is safe for concurrent use.
type Session struct {
	mu           sync.Mutex
	clock        Clock
	unlocked     bool
	lastActivity time.Time
	autoLock     time.Duration // 0 never locks
}

// NewSession returns a locked session.
func NewSession(clock Clock) *Session {
	return &Session{clock: clock}
}

// Unlock starts an unlocked session that expires after autoLockMinutes of
// inactivity. Zero disables auto-lock.
func (s *Session) Unlock(autoLockMinutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocked = true
	s.autoLock = time.Duration(autoLockMinutes) * time.Minute
	s.lastActivity = s.clock.Now()
}

// Lock ends the session immediately.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocked = false
}

// SetAutoLock changes the inactivity timeout. Changing it counts as activity.
func (s *Session) SetAutoLock(minutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiredLocked()
	s.autoLock = time.Duration(minutes) * time.Minute
	if s.unlocked {
		s.lastActivity = s.clock.Now()
	}
}

// Touch records user activity. It has no effect on a locked session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expiredLocked() {
		return
	}
	if s.unlocked {
		s.lastActivity = s.clock.Now()
	}
}

// IsUnlocked reports whether the session is unlocked, locking it first if
// the inactivity timeout has passed.
func (s *Session) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiredLocked()
	return s.unlocked
}

// Remaining returns the time left before auto-lock. It is zero when the
// session is locked or auto-lock is disabled.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expiredLocked() || !s.unlocked || s.autoLock == 0 {
		return 0
	}
	return s.autoLock - s.clock.Now().Sub(s.lastActivity)
}

// expiredLocked locks an expired session and reports whether it did.
// s.mu must be held.
func (s *Session) expiredLocked() bool {
	if !s.unlocked || s.autoLock == 0 {
		return false
	}
	if s.clock.Now().Sub(s.lastActivity) >= s.autoLock {
		s.unlocked = false
		return true
	}
	return false
}
