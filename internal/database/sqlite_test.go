package database

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"onepass/internal/keeper"
	"onepass/internal/model"
)

// newTestDB creates a migrated, bootstrapped in-memory database.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:", nil, nil)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestSQLiteDatabase_Bootstrap(t *testing.T) {
	t.Run("seeds default groups and settings", func(t *testing.T) {
		db := newTestDB(t)

		groups, err := db.ListGroups()
		if err != nil {
			t.Fatalf("ListGroups() error = %v", err)
		}
		want := []struct{ name, icon string }{
			{"工作", "🏢"}, {"个人", "🏠"}, {"银行", "🏦"}, {"娱乐", "🎮"},
		}
		if len(groups) != len(want) {
			t.Fatalf("len(groups) = %d, want %d", len(groups), len(want))
		}
		for i, g := range groups {
			if g.Name != want[i].name || g.Icon != want[i].icon || g.SortOrder != i {
				t.Errorf("groups[%d] = %s %s #%d, want %s %s #%d",
					i, g.Icon, g.Name, g.SortOrder, want[i].icon, want[i].name, i)
			}
		}

		var count int
		if err := db.db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&count); err != nil {
			t.Fatalf("counting settings: %v", err)
		}
		if count != 3 {
			t.Errorf("settings rows = %d, want 3", count)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		db := newTestDB(t)

		if err := db.Bootstrap(); err != nil {
			t.Fatalf("second Bootstrap() error = %v", err)
		}
		groups, err := db.ListGroups()
		if err != nil {
			t.Fatalf("ListGroups() error = %v", err)
		}
		if len(groups) != 4 {
			t.Errorf("len(groups) = %d after second bootstrap, want 4", len(groups))
		}
	})

	t.Run("does not reseed when user groups remain", func(t *testing.T) {
		db := newTestDB(t)

		groups, _ := db.ListGroups()
		for _, g := range groups[1:] {
			if err := db.DeleteGroup(g.ID); err != nil {
				t.Fatalf("DeleteGroup() error = %v", err)
			}
		}
		if err := db.Bootstrap(); err != nil {
			t.Fatalf("Bootstrap() error = %v", err)
		}
		groups, _ = db.ListGroups()
		if len(groups) != 1 {
			t.Errorf("len(groups) = %d, want 1", len(groups))
		}
	})

	t.Run("keeps user settings", func(t *testing.T) {
		db := newTestDB(t)

		custom := model.Settings{AutoLockMinutes: 15, ClearClipboardSeconds: 0, Theme: "dark"}
		if err := db.UpdateSettings(custom); err != nil {
			t.Fatalf("UpdateSettings() error = %v", err)
		}
		if err := db.Bootstrap(); err != nil {
			t.Fatalf("Bootstrap() error = %v", err)
		}
		got, err := db.GetSettings()
		if err != nil {
			t.Fatalf("GetSettings() error = %v", err)
		}
		if got != custom {
			t.Errorf("GetSettings() = %+v, want %+v", got, custom)
		}
	})
}

func TestSQLiteDatabase_FileDatabaseReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault", "data.db")

	db, err := NewSQLiteDatabase(path, nil, nil)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	created, err := db.CreateEntry(model.CreateEntryInput{Title: "GitHub"})
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	if err := db.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
	db.Close()

	db, err = NewSQLiteDatabase(path, nil, nil)
	if err != nil {
		t.Fatalf("reopen NewSQLiteDatabase() error = %v", err)
	}
	defer db.Close()

	got, err := db.GetEntry(created.ID)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got.Title != "GitHub" {
		t.Errorf("Title = %q, want GitHub", got.Title)
	}
	groups, _ := db.ListGroups()
	if len(groups) != 4 {
		t.Errorf("len(groups) = %d after reopen, want 4", len(groups))
	}
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.CreateEntry(model.CreateEntryInput{Title: "Mail"}); err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "copy.db")
	if err := db.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	copyDB, err := NewSQLiteDatabase(dest, nil, nil)
	if err != nil {
		t.Fatalf("opening copy: %v", err)
	}
	defer copyDB.Close()

	entries, err := copyDB.ListEntries(model.EntryFilter{})
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Mail" {
		t.Errorf("copy entries = %v, want one Mail entry", entries)
	}
}

func TestGetSettings_MalformedValuesFallBack(t *testing.T) {
	db := newTestDB(t)

	for _, kv := range [][2]string{
		{keyAutoLockMinutes, "soon"},
		{keyClearClipboardSeconds, "-4"},
	} {
		if _, err := db.db.Exec(upsertSetting, kv[0], kv[1]); err != nil {
			t.Fatalf("writing %s: %v", kv[0], err)
		}
	}
	if _, err := db.db.Exec("DELETE FROM settings WHERE key = ?", keyTheme); err != nil {
		t.Fatalf("deleting theme: %v", err)
	}

	got, err := db.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if want := model.DefaultSettings(); got != want {
		t.Errorf("GetSettings() = %+v, want defaults %+v", got, want)
	}
}

func TestImportSnapshot_RollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)

	before, beforeEntries, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}

	_, err = db.db.Exec(`CREATE TRIGGER reject_boom BEFORE INSERT ON entries
		WHEN NEW.title = 'boom' BEGIN SELECT RAISE(ABORT, 'boom rejected'); END`)
	if err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	groups := []model.Group{{ID: "g-new", Name: "New", Icon: "📁"}}
	entries := []model.Entry{
		{ID: "e-1", Title: "fine"},
		{ID: "e-2", Title: "boom"},
	}
	_, err = db.ImportSnapshot(groups, entries, false)
	if !errors.Is(err, keeper.ErrStorage) {
		t.Fatalf("ImportSnapshot() error = %v, want ErrStorage", err)
	}

	after, afterEntries, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(after) != len(before) || len(afterEntries) != len(beforeEntries) {
		t.Errorf("after failed import: %d groups, %d entries; want %d, %d",
			len(after), len(afterEntries), len(before), len(beforeEntries))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("group %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestDeleteGroup_DetachesWithoutForeignKeys(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		t.Fatalf("disabling foreign keys: %v", err)
	}

	groups, _ := db.ListGroups()
	e, err := db.CreateEntry(model.CreateEntryInput{GroupID: &groups[0].ID, Title: "Jira"})
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	if err := db.DeleteGroup(groups[0].ID); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}

	got, err := db.GetEntry(e.ID)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got.GroupID != nil {
		t.Errorf("GroupID = %q, want nil", *got.GroupID)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"plain":    "plain",
		"100%":     `100\%`,
		"a_b":      `a\_b`,
		`back\sl`:  `back\\sl`,
		`%_\mixed`: `\%\_\\mixed`,
	}
	for in, want := range tests {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEntryUpdate(t *testing.T) {
	t.Run("empty patch touches only updated_at", func(t *testing.T) {
		query, args, err := entryUpdate("e1", model.EntryPatch{}, 42).ToSql()
		if err != nil {
			t.Fatalf("ToSql() error = %v", err)
		}
		if want := "UPDATE entries SET updated_at = ? WHERE id = ?"; query != want {
			t.Errorf("query = %q, want %q", query, want)
		}
		if len(args) != 2 || args[0] != int64(42) || args[1] != "e1" {
			t.Errorf("args = %v, want [42 e1]", args)
		}
	})

	t.Run("clear group binds NULL", func(t *testing.T) {
		query, args, err := entryUpdate("e1", model.EntryPatch{Group: model.ClearGroup()}, 1).ToSql()
		if err != nil {
			t.Fatalf("ToSql() error = %v", err)
		}
		if want := "UPDATE entries SET group_id = ?, updated_at = ? WHERE id = ?"; query != want {
			t.Errorf("query = %q, want %q", query, want)
		}
		if args[0] != nil {
			t.Errorf("group_id arg = %v, want nil", args[0])
		}
	})

	t.Run("set fields in column order", func(t *testing.T) {
		p := model.EntryPatch{
			Group:      model.AssignGroup("g1"),
			Title:      model.Set("T"),
			Password:   model.Set(""),
			IsFavorite: model.Set(true),
			SortOrder:  model.Set(3),
		}
		query, args, err := entryUpdate("e1", p, 7).ToSql()
		if err != nil {
			t.Fatalf("ToSql() error = %v", err)
		}
		want := "UPDATE entries SET group_id = ?, title = ?, password = ?, is_favorite = ?, sort_order = ?, updated_at = ? WHERE id = ?"
		if query != want {
			t.Errorf("query = %q, want %q", query, want)
		}
		wantArgs := []any{"g1", "T", "", 1, 3, int64(7), "e1"}
		if len(args) != len(wantArgs) {
			t.Fatalf("args = %v, want %v", args, wantArgs)
		}
		for i := range wantArgs {
			if args[i] != wantArgs[i] {
				t.Errorf("args[%d] = %v, want %v", i, args[i], wantArgs[i])
			}
		}
	})
}

func TestGroupUpdate(t *testing.T) {
	query, args, err := groupUpdate("g1", model.GroupPatch{Icon: model.Set("🔒")}, 5).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if want := "UPDATE groups SET icon = ?, updated_at = ? WHERE id = ?"; query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if len(args) != 3 || args[0] != "🔒" || args[2] != "g1" {
		t.Errorf("args = %v", args)
	}
}

func TestEntryQuery(t *testing.T) {
	t.Run("zero filter has no WHERE", func(t *testing.T) {
		query, args, err := entryQuery(model.EntryFilter{}).ToSql()
		if err != nil {
			t.Fatalf("ToSql() error = %v", err)
		}
		if strings.Contains(query, "WHERE") || len(args) != 0 {
			t.Errorf("query = %q, args = %v", query, args)
		}
		if !strings.HasSuffix(query, "ORDER BY sort_order ASC, updated_at DESC") {
			t.Errorf("query = %q, want sort order last", query)
		}
	})

	t.Run("all conditions are combined", func(t *testing.T) {
		group := "g1"
		query, args, err := entryQuery(model.EntryFilter{GroupID: &group, FavoritesOnly: true, Search: "50%"}).ToSql()
		if err != nil {
			t.Fatalf("ToSql() error = %v", err)
		}
		for _, part := range []string{"group_id = ?", " AND is_favorite = ?", `title LIKE ? ESCAPE '\' OR url LIKE ?`} {
			if !strings.Contains(query, part) {
				t.Errorf("query = %q, missing %q", query, part)
			}
		}
		wantArgs := []any{"g1", 1, `%50\%%`, `%50\%%`, `%50\%%`}
		if len(args) != len(wantArgs) {
			t.Fatalf("args = %v, want %v", args, wantArgs)
		}
		for i := range wantArgs {
			if args[i] != wantArgs[i] {
				t.Errorf("args[%d] = %v, want %v", i, args[i], wantArgs[i])
			}
		}
	})
}
