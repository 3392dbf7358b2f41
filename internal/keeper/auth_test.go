package keeper_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"onepass/internal/keeper"
	"onepass/internal/model"
	"onepass/internal/testutil"
)

func TestService_SetupAndVerify(t *testing.T) {
	t.Run("uninitialized vault", func(t *testing.T) {
		svc := newFixture(t, "a").svc

		if svc.CheckInitialized() {
			t.Error("CheckInitialized() = true on a fresh vault")
		}
		_, err := svc.VerifyPassword("anything")
		if !errors.Is(err, keeper.ErrNotInitialized) || !errors.Is(err, keeper.ErrAuth) {
			t.Errorf("VerifyPassword() error = %v, want ErrNotInitialized (ErrAuth)", err)
		}
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc := newFixture(t, "a").svc

		err := svc.SetupPassword("abc")
		if !errors.Is(err, keeper.ErrValidation) || !errors.Is(err, keeper.ErrPasswordTooShort) {
			t.Fatalf("SetupPassword(abc) error = %v, want ErrPasswordTooShort", err)
		}
		if svc.CheckInitialized() {
			t.Error("CheckInitialized() = true after rejected setup")
		}
	})

	t.Run("setup then verify", func(t *testing.T) {
		svc := newFixture(t, "a").svc

		if err := svc.SetupPassword("abcd"); err != nil {
			t.Fatalf("SetupPassword(abcd) error = %v", err)
		}
		if !svc.CheckInitialized() {
			t.Error("CheckInitialized() = false after setup")
		}
		if ok, err := svc.VerifyPassword("abcd"); err != nil || !ok {
			t.Errorf("VerifyPassword(abcd) = %v, %v; want true", ok, err)
		}
		if ok, err := svc.VerifyPassword("wrong"); err != nil || ok {
			t.Errorf("VerifyPassword(wrong) = %v, %v; want false", ok, err)
		}
	})

	t.Run("length counts characters not bytes", func(t *testing.T) {
		svc := newFixture(t, "a").svc

		if err := svc.SetupPassword("密码"); !errors.Is(err, keeper.ErrValidation) {
			t.Errorf("SetupPassword(2 chars) error = %v, want ErrValidation", err)
		}
		if err := svc.SetupPassword("密码密码"); err != nil {
			t.Errorf("SetupPassword(4 chars) error = %v", err)
		}
	})

	t.Run("rejects passwords bcrypt would truncate", func(t *testing.T) {
		svc := newFixture(t, "a").svc

		err := svc.SetupPassword(strings.Repeat("x", 73))
		if !errors.Is(err, keeper.ErrValidation) {
			t.Errorf("SetupPassword(73 bytes) error = %v, want ErrValidation", err)
		}
	})

	t.Run("setup again resets", func(t *testing.T) {
		svc := newFixture(t, "a").svc
		if err := svc.SetupPassword("first"); err != nil {
			t.Fatalf("SetupPassword() error = %v", err)
		}
		if err := svc.SetupPassword("second"); err != nil {
			t.Fatalf("SetupPassword() again error = %v", err)
		}
		if ok, _ := svc.VerifyPassword("first"); ok {
			t.Error("old password still verifies after reset")
		}
		if ok, _ := svc.VerifyPassword("second"); !ok {
			t.Error("new password does not verify after reset")
		}
	})

	t.Run("corrupt stored hash reads as mismatch", func(t *testing.T) {
		db := testutil.NewTestDatabase(t, nil)
		if err := db.SetMasterPasswordHash("not-a-bcrypt-hash"); err != nil {
			t.Fatalf("SetMasterPasswordHash() error = %v", err)
		}
		svc := keeper.NewService(db, nil, nil, nil, nil, nil, nil)

		ok, err := svc.VerifyPassword("anything")
		if err != nil || ok {
			t.Errorf("VerifyPassword() = %v, %v; want false, nil", ok, err)
		}
	})
}

func TestService_ChangePassword(t *testing.T) {
	t.Run("wrong old password", func(t *testing.T) {
		svc := newFixture(t, "a").svc
		if err := svc.SetupPassword("original"); err != nil {
			t.Fatalf("SetupPassword() error = %v", err)
		}

		err := svc.ChangePassword("guess", "replacement")
		if !errors.Is(err, keeper.ErrWrongOldPassword) || !errors.Is(err, keeper.ErrAuth) {
			t.Errorf("ChangePassword() error = %v, want ErrWrongOldPassword", err)
		}
		if ok, _ := svc.VerifyPassword("original"); !ok {
			t.Error("original password no longer verifies")
		}
	})

	t.Run("short new password keeps the old one", func(t *testing.T) {
		svc := newFixture(t, "a").svc
		if err := svc.SetupPassword("original"); err != nil {
			t.Fatalf("SetupPassword() error = %v", err)
		}

		if err := svc.ChangePassword("original", "new"); !errors.Is(err, keeper.ErrValidation) {
			t.Errorf("ChangePassword() error = %v, want ErrValidation", err)
		}
		if ok, _ := svc.VerifyPassword("original"); !ok {
			t.Error("original password no longer verifies")
		}
	})

	t.Run("success", func(t *testing.T) {
		svc := newFixture(t, "a").svc
		if err := svc.SetupPassword("original"); err != nil {
			t.Fatalf("SetupPassword() error = %v", err)
		}

		if err := svc.ChangePassword("original", "replacement"); err != nil {
			t.Fatalf("ChangePassword() error = %v", err)
		}
		if ok, _ := svc.VerifyPassword("replacement"); !ok {
			t.Error("new password does not verify")
		}
		if ok, _ := svc.VerifyPassword("original"); ok {
			t.Error("old password still verifies")
		}
	})

	t.Run("uninitialized vault", func(t *testing.T) {
		svc := newFixture(t, "a").svc

		err := svc.ChangePassword("a", "abcd")
		if !errors.Is(err, keeper.ErrNotInitialized) {
			t.Errorf("ChangePassword() error = %v, want ErrNotInitialized", err)
		}
	})
}

func TestService_UnlockAndLock(t *testing.T) {
	f := newFixture(t, "a")
	svc := f.svc
	if err := svc.SetupPassword("letmein"); err != nil {
		t.Fatalf("SetupPassword() error = %v", err)
	}

	if err := svc.Unlock("nope"); !errors.Is(err, keeper.ErrAuth) {
		t.Errorf("Unlock(wrong) error = %v, want ErrAuth", err)
	}
	if svc.Session().IsUnlocked() {
		t.Error("session unlocked after wrong password")
	}

	if err := svc.Unlock("letmein"); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if !svc.Session().IsUnlocked() {
		t.Error("session locked after Unlock")
	}
	if got := svc.Session().Remaining(); got != 5*time.Minute {
		t.Errorf("Remaining() = %v, want 5m from default settings", got)
	}

	svc.Lock()
	if svc.Session().IsUnlocked() {
		t.Error("session unlocked after Lock")
	}
}

func TestService_UpdateSettings(t *testing.T) {
	t.Run("rejects negative durations", func(t *testing.T) {
		svc := newFixture(t, "a").svc

		err := svc.UpdateSettings(model.Settings{AutoLockMinutes: -1, Theme: "dark"})
		if !errors.Is(err, keeper.ErrValidation) {
			t.Errorf("UpdateSettings() error = %v, want ErrValidation", err)
		}
		got, _ := svc.GetSettings()
		if got != model.DefaultSettings() {
			t.Errorf("settings changed to %+v", got)
		}
	})

	t.Run("applies auto-lock to the live session", func(t *testing.T) {
		f := newFixture(t, "a")
		if err := f.svc.SetupPassword("letmein"); err != nil {
			t.Fatalf("SetupPassword() error = %v", err)
		}
		if err := f.svc.Unlock("letmein"); err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}

		if err := f.svc.UpdateSettings(model.Settings{AutoLockMinutes: 1, ClearClipboardSeconds: 30, Theme: "light"}); err != nil {
			t.Fatalf("UpdateSettings() error = %v", err)
		}
		f.clock.Advance(time.Minute)
		if f.svc.Session().IsUnlocked() {
			t.Error("session still unlocked past the new one-minute timeout")
		}
	})
}
