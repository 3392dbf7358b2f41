package model

// DefaultGroupIcon is used when a group is created without an icon.
const DefaultGroupIcon = "📁"

// Group is a user-defined category for entries.
type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	SortOrder int    `json:"sortOrder"`
	CreatedAt int64  `json:"createdAt"` // Unix seconds
	UpdatedAt int64  `json:"updatedAt"` // Unix seconds
}

// Entry is a single stored credential.
type Entry struct {
	ID         string  `json:"id"`
	GroupID    *string `json:"groupId"` // nil means ungrouped
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Username   string  `json:"username"`
	Password   string  `json:"password"`
	Notes      string  `json:"notes"`
	IsFavorite bool    `json:"isFavorite"`
	SortOrder  int     `json:"sortOrder"`
	CreatedAt  int64   `json:"createdAt"`
	UpdatedAt  int64   `json:"updatedAt"`
}

// CreateEntryInput carries the fields accepted when creating an entry.
// Nil optional strings are stored as "".
type CreateEntryInput struct {
	GroupID  *string `json:"groupId,omitempty"`
	Title    string  `json:"title"`
	URL      *string `json:"url,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// EntryFilter narrows ListEntries. The zero value matches every entry.
type EntryFilter struct {
	GroupID       *string
	Search        string
	FavoritesOnly bool
}

// Settings are the user preferences stored alongside the vault.
type Settings struct {
	AutoLockMinutes       int    `json:"autoLockMinutes"`       // 0 disables auto-lock
	ClearClipboardSeconds int    `json:"clearClipboardSeconds"` // 0 disables clearing
	Theme                 string `json:"theme"`
}

// DefaultSettings returns the values used when a key is missing or malformed.
func DefaultSettings() Settings {
	return Settings{
		AutoLockMinutes:       5,
		ClearClipboardSeconds: 30,
		Theme:                 "system",
	}
}

// Ptr returns a pointer to v. Handy for optional input fields.
func Ptr[T any](v T) *T { return &v }
