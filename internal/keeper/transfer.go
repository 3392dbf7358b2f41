package keeper

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"onepass/internal/model"
)

// Default file names proposed by the save dialog.
const (
	DefaultJSONExportName        = "one-password-backup.json"
	DefaultSpreadsheetExportName = "one-password-backup.xlsx"
)

// ExportJSON serializes every group and entry into a versioned snapshot.
func (s *Service) ExportJSON() ([]byte, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, Errorf(ErrFormat, "encoding snapshot: %w", err)
	}
	s.logger.Info("vault exported", "format", "json", "groups", len(snap.Groups), "entries", len(snap.Entries))
	return data, nil
}

func (s *Service) snapshot() (*model.Snapshot, error) {
	groups, entries, err := s.database.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []model.Group{}
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	return &model.Snapshot{
		Version:    model.SnapshotVersion,
		ExportDate: s.clock.Now().UTC().Format(time.RFC3339),
		Groups:     groups,
		Entries:    entries,
	}, nil
}

// ImportJSON loads a snapshot produced by ExportJSON. In merge mode rows
// whose id already exists are skipped; otherwise all existing groups and
// entries are removed first. The import is all-or-nothing.
func (s *Service) ImportJSON(data []byte, merge bool) (model.ImportResult, error) {
	snap, err := ParseSnapshot(data)
	if err != nil {
		return model.ImportResult{}, err
	}

	res, err := s.database.ImportSnapshot(snap.Groups, snap.Entries, merge)
	if err != nil {
		s.logger.Error("import failed", "merge", merge, "error", err)
		return model.ImportResult{}, err
	}
	s.logger.Info("vault imported",
		"merge", merge,
		"groups", res.GroupsImported,
		"entries", res.EntriesImported,
		"skipped_groups", len(snap.Groups)-res.GroupsImported,
		"skipped_entries", len(snap.Entries)-res.EntriesImported)
	return res, nil
}

// ParseSnapshot decodes and validates a snapshot. All four top-level fields
// are required, the version must be 1.x, every group needs an id and a name
// key, and every entry an id and a title key. Name and title may be empty.
func ParseSnapshot(data []byte) (*model.Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, Errorf(ErrFormat, "invalid backup file: %w", err)
	}
	for _, key := range []string{"version", "exportDate", "groups", "entries"} {
		raw, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, Errorf(ErrFormat, "invalid backup file: missing %q", key)
		}
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, Errorf(ErrFormat, "invalid backup file: %w", err)
	}

	major, _, _ := strings.Cut(snap.Version, ".")
	if major != "1" {
		return nil, Errorf(ErrFormat, "unsupported backup version %q", snap.Version)
	}

	// Empty names and titles are valid vault content; only absent ones are not.
	var present struct {
		Groups []struct {
			Name *string `json:"name"`
		} `json:"groups"`
		Entries []struct {
			Title *string `json:"title"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(data, &present); err != nil {
		return nil, Errorf(ErrFormat, "invalid backup file: %w", err)
	}
	for i, g := range snap.Groups {
		if g.ID == "" || present.Groups[i].Name == nil {
			return nil, Errorf(ErrFormat, "invalid backup file: group %d needs an id and a name", i)
		}
	}
	for i, e := range snap.Entries {
		if e.ID == "" || present.Entries[i].Title == nil {
			return nil, Errorf(ErrFormat, "invalid backup file: entry %d needs an id and a title", i)
		}
	}
	return &snap, nil
}

// SaveExport asks the host for a destination and writes content there.
// Dismissing the dialog yields ErrCancelled. It returns the chosen path.
func (s *Service) SaveExport(content []byte, defaultName string) (string, error) {
	if s.dialogs == nil {
		return "", &Error{Kind: ErrValidation, Msg: "no file dialog available"}
	}
	path, ok, err := s.dialogs.SaveFile("Save backup file", defaultName)
	if err != nil {
		return "", Errorf(ErrIO, "save dialog: %w", err)
	}
	if !ok {
		return "", &Error{Kind: ErrCancelled, Msg: "save cancelled"}
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", Errorf(ErrIO, "writing %s: %w", path, err)
	}
	s.logger.Info("export written", "path", path, "bytes", len(content))
	return path, nil
}

// LoadImportFile asks the host for a backup file and returns its contents.
func (s *Service) LoadImportFile() ([]byte, error) {
	if s.dialogs == nil {
		return nil, &Error{Kind: ErrValidation, Msg: "no file dialog available"}
	}
	path, ok, err := s.dialogs.OpenFile("Select backup file")
	if err != nil {
		return nil, Errorf(ErrIO, "open dialog: %w", err)
	}
	if !ok {
		return nil, &Error{Kind: ErrCancelled, Msg: "import cancelled"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Errorf(ErrIO, "reading %s: %w", path, err)
	}
	return data, nil
}
