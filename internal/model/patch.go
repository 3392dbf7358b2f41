package model

// Field is an optional value in a partial update. The zero value means
// "leave unchanged"; Set marks the field for writing.
type Field[T any] struct {
	value T
	set   bool
}

// Set returns a Field that writes v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Get returns the value and whether the field was set.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// IsSet reports whether the field should be written.
func (f Field[T]) IsSet() bool { return f.set }

type groupAction uint8

const (
	groupKeep groupAction = iota
	groupClear
	groupAssign
)

// GroupAssignment is the three-state group change of an entry update:
// keep the current group, clear it, or assign a new one. The zero value keeps.
type GroupAssignment struct {
	action  groupAction
	groupID string
}

// KeepGroup leaves the entry's group untouched.
func KeepGroup() GroupAssignment { return GroupAssignment{} }

// ClearGroup detaches the entry from any group.
func ClearGroup() GroupAssignment { return GroupAssignment{action: groupClear} }

// AssignGroup moves the entry into the given group.
func AssignGroup(id string) GroupAssignment {
	return GroupAssignment{action: groupAssign, groupID: id}
}

// Changes reports whether the assignment modifies the entry.
func (g GroupAssignment) Changes() bool { return g.action != groupKeep }

// Target returns the new group id, or nil when the group is being cleared.
// It is meaningful only when Changes is true.
func (g GroupAssignment) Target() *string {
	if g.action != groupAssign {
		return nil
	}
	id := g.groupID
	return &id
}

// EntryPatch lists the entry fields an update should write. UpdatedAt is
// always refreshed regardless of which fields are set.
type EntryPatch struct {
	Group      GroupAssignment
	Title      Field[string]
	URL        Field[string]
	Username   Field[string]
	Password   Field[string]
	Notes      Field[string]
	IsFavorite Field[bool]
	SortOrder  Field[int]
}

// GroupPatch lists the group fields an update should write.
type GroupPatch struct {
	Name Field[string]
	Icon Field[string]
}
