package database

import (
	"onepass/internal/keeper"
	"onepass/internal/model"
)

// LoadSnapshot returns every group and entry, each ordered by sort order.
func (s *SQLiteDatabase) LoadSnapshot() ([]model.Group, []model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := []model.Group{}
	rows, err := s.db.Query("SELECT " + groupColumns + " FROM groups ORDER BY sort_order ASC, id ASC")
	if err != nil {
		return nil, nil, keeper.StorageError("loading groups", err)
	}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, nil, keeper.StorageError("scanning group", err)
		}
		groups = append(groups, *g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, keeper.StorageError("loading groups", err)
	}

	entries := []model.Entry{}
	rows, err = s.db.Query("SELECT " + entryColumns + " FROM entries ORDER BY sort_order ASC, created_at ASC, id ASC")
	if err != nil {
		return nil, nil, keeper.StorageError("loading entries", err)
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, nil, keeper.StorageError("scanning entry", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, keeper.StorageError("loading entries", err)
	}
	return groups, entries, nil
}

// ImportSnapshot inserts groups and then entries in a single transaction.
// Without merge, all existing groups and entries are deleted first. Rows whose
// id already exists are skipped. An entry referencing a group that exists
// neither in the vault nor in the snapshot is imported ungrouped. Any failure
// rolls the whole import back.
func (s *SQLiteDatabase) ImportSnapshot(groups []model.Group, entries []model.Entry, merge bool) (model.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res model.ImportResult

	tx, err := s.db.Begin()
	if err != nil {
		return res, keeper.StorageError("starting transaction", err)
	}
	defer tx.Rollback()

	if !merge {
		if _, err := tx.Exec("DELETE FROM entries"); err != nil {
			return res, keeper.StorageError("clearing entries", err)
		}
		if _, err := tx.Exec("DELETE FROM groups"); err != nil {
			return res, keeper.StorageError("clearing groups", err)
		}
	}

	for _, g := range groups {
		r, err := tx.Exec(`INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			g.ID, g.Name, g.Icon, g.SortOrder, g.CreatedAt, g.UpdatedAt)
		if err != nil {
			return model.ImportResult{}, keeper.StorageError("importing group "+g.ID, err)
		}
		n, err := r.RowsAffected()
		if err != nil {
			return model.ImportResult{}, keeper.StorageError("importing group "+g.ID, err)
		}
		res.GroupsImported += int(n)
	}

	known, err := groupIDs(tx)
	if err != nil {
		return model.ImportResult{}, err
	}

	for _, e := range entries {
		var groupID *string
		if e.GroupID != nil && known[*e.GroupID] {
			groupID = e.GroupID
		}
		r, err := tx.Exec(`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			e.ID, nullable(groupID), e.Title, e.URL, e.Username, e.Password, e.Notes,
			boolToInt(e.IsFavorite), e.SortOrder, e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return model.ImportResult{}, keeper.StorageError("importing entry "+e.ID, err)
		}
		n, err := r.RowsAffected()
		if err != nil {
			return model.ImportResult{}, keeper.StorageError("importing entry "+e.ID, err)
		}
		res.EntriesImported += int(n)
	}

	if err := tx.Commit(); err != nil {
		return model.ImportResult{}, keeper.StorageError("committing import", err)
	}
	return res, nil
}

func groupIDs(q querier) (map[string]bool, error) {
	rows, err := q.Query("SELECT id FROM groups")
	if err != nil {
		return nil, keeper.StorageError("listing group ids", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, keeper.StorageError("scanning group id", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, keeper.StorageError("listing group ids", err)
	}
	return ids, nil
}
