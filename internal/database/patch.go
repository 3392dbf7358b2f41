package database

import (
	sq "github.com/Masterminds/squirrel"

	"onepass/internal/model"
)

// entryUpdate compiles an EntryPatch into an UPDATE of the entry with id.
// Only set fields are written; updated_at always is.
func entryUpdate(id string, p model.EntryPatch, now int64) sq.UpdateBuilder {
	b := sq.Update("entries")
	if p.Group.Changes() {
		b = b.Set("group_id", nullable(p.Group.Target()))
	}
	if v, ok := p.Title.Get(); ok {
		b = b.Set("title", v)
	}
	if v, ok := p.URL.Get(); ok {
		b = b.Set("url", v)
	}
	if v, ok := p.Username.Get(); ok {
		b = b.Set("username", v)
	}
	if v, ok := p.Password.Get(); ok {
		b = b.Set("password", v)
	}
	if v, ok := p.Notes.Get(); ok {
		b = b.Set("notes", v)
	}
	if v, ok := p.IsFavorite.Get(); ok {
		b = b.Set("is_favorite", boolToInt(v))
	}
	if v, ok := p.SortOrder.Get(); ok {
		b = b.Set("sort_order", v)
	}
	return b.Set("updated_at", now).Where(sq.Eq{"id": id})
}

// groupUpdate compiles a GroupPatch into an UPDATE of the group with id.
func groupUpdate(id string, p model.GroupPatch, now int64) sq.UpdateBuilder {
	b := sq.Update("groups")
	if v, ok := p.Name.Get(); ok {
		b = b.Set("name", v)
	}
	if v, ok := p.Icon.Get(); ok {
		b = b.Set("icon", v)
	}
	return b.Set("updated_at", now).Where(sq.Eq{"id": id})
}

// entryQuery compiles an EntryFilter into the ListEntries SELECT.
func entryQuery(filter model.EntryFilter) sq.SelectBuilder {
	q := sq.Select(entryColumns).From("entries").OrderBy("sort_order ASC", "updated_at DESC")

	var where sq.And
	if filter.GroupID != nil {
		where = append(where, sq.Eq{"group_id": *filter.GroupID})
	}
	if filter.FavoritesOnly {
		where = append(where, sq.Eq{"is_favorite": 1})
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		where = append(where, sq.Or{
			sq.Expr(`title LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`url LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`username LIKE ? ESCAPE '\'`, pattern),
		})
	}
	if len(where) > 0 {
		q = q.Where(where)
	}
	return q
}
