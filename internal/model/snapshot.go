package model

// SnapshotVersion is written into every export. Imports accept any 1.x version.
const SnapshotVersion = "1.0"

// Snapshot is the JSON export format of the whole vault.
type Snapshot struct {
	Version    string  `json:"version"`
	ExportDate string  `json:"exportDate"` // RFC 3339
	Groups     []Group `json:"groups"`
	Entries    []Entry `json:"entries"`
}

// ImportResult counts the rows an import actually inserted.
type ImportResult struct {
	GroupsImported  int `json:"groupsImported"`
	EntriesImported int `json:"entriesImported"`
}
