package database_test

import (
	"errors"
	"testing"
	"time"

	"onepass/internal/database"
	"onepass/internal/keeper"
	"onepass/internal/model"
	"onepass/internal/testutil"
)

func newVault(t *testing.T) (*database.SQLiteDatabase, *testutil.StubClock) {
	t.Helper()
	clock := testutil.FixedClock()
	return testutil.NewTestDatabase(t, clock), clock
}

func mustCreateEntry(t *testing.T, db *database.SQLiteDatabase, in model.CreateEntryInput) *model.Entry {
	t.Helper()
	e, err := db.CreateEntry(in)
	if err != nil {
		t.Fatalf("CreateEntry(%q) error = %v", in.Title, err)
	}
	return e
}

func titles(entries []*model.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSQLiteDatabase_CreateEntry(t *testing.T) {
	t.Run("defaults optional fields", func(t *testing.T) {
		db, clock := newVault(t)

		created := mustCreateEntry(t, db, model.CreateEntryInput{Title: "GitHub"})

		if created.URL != "" || created.Username != "" || created.Password != "" || created.Notes != "" {
			t.Errorf("optional fields = %q %q %q %q, want all empty", created.URL, created.Username, created.Password, created.Notes)
		}
		if created.GroupID != nil {
			t.Errorf("GroupID = %v, want nil", *created.GroupID)
		}
		if created.IsFavorite || created.SortOrder != 0 {
			t.Errorf("IsFavorite, SortOrder = %v, %d, want false, 0", created.IsFavorite, created.SortOrder)
		}
		now := clock.Now().Unix()
		if created.CreatedAt != now || created.UpdatedAt != now {
			t.Errorf("timestamps = %d/%d, want %d", created.CreatedAt, created.UpdatedAt, now)
		}

		all, err := db.ListEntries(model.EntryFilter{})
		if err != nil {
			t.Fatalf("ListEntries() error = %v", err)
		}
		matches := 0
		for _, e := range all {
			if e.ID == created.ID {
				matches++
				if *e != *created {
					t.Errorf("listed entry = %+v, want %+v", *e, *created)
				}
			}
		}
		if matches != 1 {
			t.Errorf("found %d matching entries, want 1", matches)
		}
	})

	t.Run("stores supplied fields", func(t *testing.T) {
		db, _ := newVault(t)
		groups, _ := db.ListGroups()

		in := model.CreateEntryInput{
			GroupID:  &groups[0].ID,
			Title:    "Mail",
			URL:      model.Ptr("https://mail.example.com"),
			Username: model.Ptr("alice"),
			Password: model.Ptr("s3cret!"),
			Notes:    model.Ptr("2FA on phone"),
		}
		created := mustCreateEntry(t, db, in)

		got, err := db.GetEntry(created.ID)
		if err != nil {
			t.Fatalf("GetEntry() error = %v", err)
		}
		if got.GroupID == nil || *got.GroupID != groups[0].ID {
			t.Errorf("GroupID = %v, want %s", got.GroupID, groups[0].ID)
		}
		if got.URL != "https://mail.example.com" || got.Username != "alice" || got.Password != "s3cret!" || got.Notes != "2FA on phone" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("rejects unknown group", func(t *testing.T) {
		db, _ := newVault(t)

		_, err := db.CreateEntry(model.CreateEntryInput{GroupID: model.Ptr("missing"), Title: "X"})
		if !errors.Is(err, keeper.ErrStorage) {
			t.Errorf("CreateEntry() error = %v, want ErrStorage", err)
		}
	})
}

func TestSQLiteDatabase_GetEntry(t *testing.T) {
	db, _ := newVault(t)

	_, err := db.GetEntry("missing")
	if !errors.Is(err, keeper.ErrNotFound) {
		t.Errorf("GetEntry() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDatabase_ListEntries(t *testing.T) {
	db, clock := newVault(t)
	groups, _ := db.ListGroups()
	work, personal := groups[0].ID, groups[1].ID

	gh := mustCreateEntry(t, db, model.CreateEntryInput{GroupID: &work, Title: "GitHub", URL: model.Ptr("https://github.com"), Username: model.Ptr("octo")})
	clock.Advance(time.Second)
	mustCreateEntry(t, db, model.CreateEntryInput{GroupID: &work, Title: "Gitlab", Username: model.Ptr("dev")})
	clock.Advance(time.Second)
	mustCreateEntry(t, db, model.CreateEntryInput{GroupID: &personal, Title: "Bank", URL: model.Ptr("https://bank.example")})
	clock.Advance(time.Second)
	mustCreateEntry(t, db, model.CreateEntryInput{Title: "100% Discount", Username: model.Ptr("shop_user")})
	clock.Advance(time.Second)
	if _, err := db.ToggleFavorite(gh.ID); err != nil {
		t.Fatalf("ToggleFavorite() error = %v", err)
	}

	tests := []struct {
		name   string
		filter model.EntryFilter
		want   []string
	}{
		{"no filter orders by most recently updated", model.EntryFilter{}, []string{"GitHub", "100% Discount", "Bank", "Gitlab"}},
		{"group", model.EntryFilter{GroupID: &work}, []string{"GitHub", "Gitlab"}},
		{"favorites", model.EntryFilter{FavoritesOnly: true}, []string{"GitHub"}},
		{"search is case-insensitive", model.EntryFilter{Search: "git"}, []string{"GitHub", "Gitlab"}},
		{"search matches url", model.EntryFilter{Search: "BANK.EXAMPLE"}, []string{"Bank"}},
		{"search matches username", model.EntryFilter{Search: "octo"}, []string{"GitHub"}},
		{"search percent is literal", model.EntryFilter{Search: "%"}, []string{"100% Discount"}},
		{"search underscore is literal", model.EntryFilter{Search: "p_u"}, []string{"100% Discount"}},
		{"filters compose with AND", model.EntryFilter{GroupID: &work, Search: "lab"}, []string{"Gitlab"}},
		{"favorites and group", model.EntryFilter{GroupID: &personal, FavoritesOnly: true}, []string{}},
		{"no match", model.EntryFilter{Search: "nothing"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListEntries(tt.filter)
			if err != nil {
				t.Fatalf("ListEntries() error = %v", err)
			}
			if !equalStrings(titles(got), tt.want) {
				t.Errorf("ListEntries() = %v, want %v", titles(got), tt.want)
			}
		})
	}

	t.Run("sort order wins over recency", func(t *testing.T) {
		if _, err := db.UpdateEntry(gh.ID, model.EntryPatch{SortOrder: model.Set(5)}); err != nil {
			t.Fatalf("UpdateEntry() error = %v", err)
		}
		got, _ := db.ListEntries(model.EntryFilter{})
		if last := got[len(got)-1]; last.ID != gh.ID {
			t.Errorf("last entry = %s, want GitHub (sortOrder 5)", last.Title)
		}
	})
}

func TestSQLiteDatabase_UpdateEntry(t *testing.T) {
	t.Run("empty patch changes only updatedAt", func(t *testing.T) {
		db, clock := newVault(t)
		groups, _ := db.ListGroups()
		before := mustCreateEntry(t, db, model.CreateEntryInput{GroupID: &groups[2].ID, Title: "Bank", Password: model.Ptr("pw")})
		clock.Advance(time.Minute)

		after, err := db.UpdateEntry(before.ID, model.EntryPatch{})
		if err != nil {
			t.Fatalf("UpdateEntry() error = %v", err)
		}
		if after.UpdatedAt != clock.Now().Unix() {
			t.Errorf("UpdatedAt = %d, want %d", after.UpdatedAt, clock.Now().Unix())
		}
		expected := *before
		expected.UpdatedAt = after.UpdatedAt
		if *after.GroupID != *expected.GroupID {
			t.Errorf("GroupID changed")
		}
		after.GroupID, expected.GroupID = nil, nil
		if *after != expected {
			t.Errorf("UpdateEntry() = %+v, want %+v", *after, expected)
		}
	})

	t.Run("updates only set fields", func(t *testing.T) {
		db, _ := newVault(t)
		e := mustCreateEntry(t, db, model.CreateEntryInput{Title: "Old", Username: model.Ptr("bob"), Notes: model.Ptr("keep")})

		got, err := db.UpdateEntry(e.ID, model.EntryPatch{
			Title:      model.Set("New"),
			Username:   model.Set(""),
			IsFavorite: model.Set(true),
		})
		if err != nil {
			t.Fatalf("UpdateEntry() error = %v", err)
		}
		if got.Title != "New" || got.Username != "" || !got.IsFavorite || got.Notes != "keep" {
			t.Errorf("UpdateEntry() = %+v", got)
		}
	})

	t.Run("group assignment is three-state", func(t *testing.T) {
		db, _ := newVault(t)
		groups, _ := db.ListGroups()
		e := mustCreateEntry(t, db, model.CreateEntryInput{GroupID: &groups[0].ID, Title: "Jira"})

		kept, err := db.UpdateEntry(e.ID, model.EntryPatch{Group: model.KeepGroup(), Title: model.Set("Jira Cloud")})
		if err != nil {
			t.Fatalf("UpdateEntry(keep) error = %v", err)
		}
		if kept.GroupID == nil || *kept.GroupID != groups[0].ID {
			t.Errorf("keep: GroupID = %v, want %s", kept.GroupID, groups[0].ID)
		}

		moved, err := db.UpdateEntry(e.ID, model.EntryPatch{Group: model.AssignGroup(groups[1].ID)})
		if err != nil {
			t.Fatalf("UpdateEntry(assign) error = %v", err)
		}
		if moved.GroupID == nil || *moved.GroupID != groups[1].ID {
			t.Errorf("assign: GroupID = %v, want %s", moved.GroupID, groups[1].ID)
		}

		cleared, err := db.UpdateEntry(e.ID, model.EntryPatch{Group: model.ClearGroup()})
		if err != nil {
			t.Fatalf("UpdateEntry(clear) error = %v", err)
		}
		if cleared.GroupID != nil {
			t.Errorf("clear: GroupID = %v, want nil", *cleared.GroupID)
		}
	})

	t.Run("missing entry", func(t *testing.T) {
		db, _ := newVault(t)

		_, err := db.UpdateEntry("missing", model.EntryPatch{Title: model.Set("x")})
		if !errors.Is(err, keeper.ErrNotFound) {
			t.Errorf("UpdateEntry() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteDatabase_DeleteEntry(t *testing.T) {
	db, _ := newVault(t)
	e := mustCreateEntry(t, db, model.CreateEntryInput{Title: "Temp"})

	if err := db.DeleteEntry(e.ID); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	if _, err := db.GetEntry(e.ID); !errors.Is(err, keeper.ErrNotFound) {
		t.Errorf("GetEntry() after delete error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteEntry(e.ID); err != nil {
		t.Errorf("DeleteEntry() of missing id error = %v, want nil", err)
	}
}

func TestSQLiteDatabase_ToggleFavorite(t *testing.T) {
	t.Run("toggling twice restores the flag", func(t *testing.T) {
		db, clock := newVault(t)
		e := mustCreateEntry(t, db, model.CreateEntryInput{Title: "Steam"})

		clock.Advance(time.Second)
		first, err := db.ToggleFavorite(e.ID)
		if err != nil {
			t.Fatalf("ToggleFavorite() error = %v", err)
		}
		if !first {
			t.Error("first ToggleFavorite() = false, want true")
		}
		afterFirst, _ := db.GetEntry(e.ID)
		if afterFirst.UpdatedAt <= e.UpdatedAt {
			t.Errorf("UpdatedAt = %d, want > %d", afterFirst.UpdatedAt, e.UpdatedAt)
		}

		clock.Advance(time.Second)
		second, err := db.ToggleFavorite(e.ID)
		if err != nil {
			t.Fatalf("ToggleFavorite() error = %v", err)
		}
		if second {
			t.Error("second ToggleFavorite() = true, want false")
		}
		afterSecond, _ := db.GetEntry(e.ID)
		if afterSecond.IsFavorite != e.IsFavorite {
			t.Errorf("IsFavorite = %v, want original %v", afterSecond.IsFavorite, e.IsFavorite)
		}
		if afterSecond.UpdatedAt <= afterFirst.UpdatedAt {
			t.Errorf("UpdatedAt = %d, want > %d", afterSecond.UpdatedAt, afterFirst.UpdatedAt)
		}
	})

	t.Run("missing entry", func(t *testing.T) {
		db, _ := newVault(t)

		_, err := db.ToggleFavorite("missing")
		if !errors.Is(err, keeper.ErrNotFound) {
			t.Errorf("ToggleFavorite() error = %v, want ErrNotFound", err)
		}
	})
}
