package database

import (
	"onepass/internal/keeper"
	"onepass/internal/model"
)

const groupColumns = `id, name, icon, sort_order, created_at, updated_at`

func scanGroup(row rowScanner) (*model.Group, error) {
	var g model.Group
	if err := row.Scan(&g.ID, &g.Name, &g.Icon, &g.SortOrder, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGroups returns all groups ordered by sort order.
func (s *SQLiteDatabase) ListGroups() ([]*model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT " + groupColumns + " FROM groups ORDER BY sort_order ASC")
	if err != nil {
		return nil, keeper.StorageError("listing groups", err)
	}
	defer rows.Close()

	groups := []*model.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, keeper.StorageError("scanning group", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, keeper.StorageError("listing groups", err)
	}
	return groups, nil
}

// CreateGroup appends a group after the current last one. A nil icon
// selects model.DefaultGroupIcon.
func (s *SQLiteDatabase) CreateGroup(name string, icon *string) (*model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, keeper.StorageError("starting transaction", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow("SELECT COALESCE(MAX(sort_order), -1) + 1 FROM groups").Scan(&next); err != nil {
		return nil, keeper.StorageError("reading group order", err)
	}

	now := s.now()
	g := &model.Group{
		ID:        s.idgen.New(),
		Name:      name,
		Icon:      model.DefaultGroupIcon,
		SortOrder: next,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if icon != nil {
		g.Icon = *icon
	}

	_, err = tx.Exec(`INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Icon, g.SortOrder, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return nil, keeper.StorageError("creating group", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, keeper.StorageError("committing group", err)
	}
	return g, nil
}

// UpdateGroup applies the fields set in patch and refreshes updated_at.
func (s *SQLiteDatabase) UpdateGroup(id string, patch model.GroupPatch) (*model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := groupUpdate(id, patch, s.now()).ToSql()
	if err != nil {
		return nil, keeper.StorageError("building group update", err)
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, keeper.StorageError("updating group", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, keeper.StorageError("updating group", err)
	}
	if n == 0 {
		return nil, notFound("group", id)
	}

	g, err := scanGroup(s.db.QueryRow("SELECT "+groupColumns+" FROM groups WHERE id = ?", id))
	if err != nil {
		return nil, keeper.StorageError("reading group", err)
	}
	return g, nil
}

// DeleteGroup removes a group. Its entries survive and become ungrouped.
// Deleting a missing id is not an error.
func (s *SQLiteDatabase) DeleteGroup(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return keeper.StorageError("starting transaction", err)
	}
	defer tx.Rollback()

	// The foreign key does the same, but only while foreign_keys is on.
	if _, err := tx.Exec("UPDATE entries SET group_id = NULL WHERE group_id = ?", id); err != nil {
		return keeper.StorageError("detaching group entries", err)
	}
	if _, err := tx.Exec("DELETE FROM groups WHERE id = ?", id); err != nil {
		return keeper.StorageError("deleting group", err)
	}
	if err := tx.Commit(); err != nil {
		return keeper.StorageError("committing group delete", err)
	}
	return nil
}

// EntryCountsByGroup maps each group id that has entries to its entry count.
// Ungrouped entries and empty groups are absent.
func (s *SQLiteDatabase) EntryCountsByGroup() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT group_id, COUNT(*) FROM entries
		WHERE group_id IS NOT NULL GROUP BY group_id`)
	if err != nil {
		return nil, keeper.StorageError("counting entries", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, keeper.StorageError("scanning entry count", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, keeper.StorageError("counting entries", err)
	}
	return counts, nil
}
