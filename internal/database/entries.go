package database

import (
	"database/sql"
	"strings"

	"onepass/internal/keeper"
	"onepass/internal/model"
)

const entryColumns = `id, group_id, title, url, username, password, notes, is_favorite, sort_order, created_at, updated_at`

func scanEntry(row rowScanner) (*model.Entry, error) {
	var (
		e       model.Entry
		groupID sql.NullString
		fav     int
	)
	err := row.Scan(&e.ID, &groupID, &e.Title, &e.URL, &e.Username, &e.Password, &e.Notes,
		&fav, &e.SortOrder, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if groupID.Valid {
		e.GroupID = &groupID.String
	}
	e.IsFavorite = fav != 0
	return &e, nil
}

// escapeLike escapes the LIKE wildcards in s so it matches literally
// under ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListEntries returns entries matching every condition in filter, ordered by
// sort order and then most recently updated first.
func (s *SQLiteDatabase) ListEntries(filter model.EntryFilter) ([]*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := entryQuery(filter).ToSql()
	if err != nil {
		return nil, keeper.StorageError("building entry query", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, keeper.StorageError("listing entries", err)
	}
	defer rows.Close()

	entries := []*model.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, keeper.StorageError("scanning entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, keeper.StorageError("listing entries", err)
	}
	return entries, nil
}

// GetEntry returns the entry with id.
func (s *SQLiteDatabase) GetEntry(id string) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEntry(s.db, id)
}

func (s *SQLiteDatabase) getEntry(q querier, id string) (*model.Entry, error) {
	e, err := scanEntry(q.QueryRow("SELECT "+entryColumns+" FROM entries WHERE id = ?", id))
	if isNoRows(err) {
		return nil, notFound("entry", id)
	}
	if err != nil {
		return nil, keeper.StorageError("reading entry", err)
	}
	return e, nil
}

// CreateEntry inserts a new entry. Optional text fields default to "".
func (s *SQLiteDatabase) CreateEntry(in model.CreateEntryInput) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := &model.Entry{
		ID:        s.idgen.New(),
		GroupID:   in.GroupID,
		Title:     in.Title,
		URL:       deref(in.URL),
		Username:  deref(in.Username),
		Password:  deref(in.Password),
		Notes:     deref(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(`INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		e.ID, nullable(e.GroupID), e.Title, e.URL, e.Username, e.Password, e.Notes, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return nil, keeper.StorageError("creating entry", err)
	}
	return e, nil
}

// UpdateEntry applies the fields set in patch and refreshes updated_at.
func (s *SQLiteDatabase) UpdateEntry(id string, patch model.EntryPatch) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := entryUpdate(id, patch, s.now()).ToSql()
	if err != nil {
		return nil, keeper.StorageError("building entry update", err)
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, keeper.StorageError("updating entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, keeper.StorageError("updating entry", err)
	}
	if n == 0 {
		return nil, notFound("entry", id)
	}
	return s.getEntry(s.db, id)
}

// DeleteEntry removes the entry with id. Deleting a missing id is not an error.
func (s *SQLiteDatabase) DeleteEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM entries WHERE id = ?", id); err != nil {
		return keeper.StorageError("deleting entry", err)
	}
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *SQLiteDatabase) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return false, keeper.StorageError("starting transaction", err)
	}
	defer tx.Rollback()

	var fav int
	err = tx.QueryRow("SELECT is_favorite FROM entries WHERE id = ?", id).Scan(&fav)
	if isNoRows(err) {
		return false, notFound("entry", id)
	}
	if err != nil {
		return false, keeper.StorageError("reading favorite flag", err)
	}

	next := fav == 0
	if _, err := tx.Exec("UPDATE entries SET is_favorite = ?, updated_at = ? WHERE id = ?",
		boolToInt(next), s.now(), id); err != nil {
		return false, keeper.StorageError("toggling favorite", err)
	}
	if err := tx.Commit(); err != nil {
		return false, keeper.StorageError("committing favorite toggle", err)
	}
	return next, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
