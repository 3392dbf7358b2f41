package keeper

import (
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	entriesSheet = "Entries"
	groupsSheet  = "Groups"

	ungroupedLabel = "Ungrouped"
	timeLayout     = "2006-01-02 15:04:05"
)

type column struct {
	header string
	width  float64
}

var entryColumns = []column{
	{"Title", 20}, {"URL", 30}, {"Username", 20}, {"Password", 20}, {"Notes", 30},
	{"Group", 15}, {"Favorite", 6}, {"Created", 20}, {"Updated", 20},
}

var groupColumns = []column{
	{"Name", 20}, {"Icon", 8}, {"Created", 20}, {"Updated", 20},
}

// ExportSpreadsheet renders the vault as an .xlsx workbook with an
// "Entries" sheet and a "Groups" sheet.
func (s *Service) ExportSpreadsheet() ([]byte, error) {
	groups, entries, err := s.database.LoadSnapshot()
	if err != nil {
		return nil, err
	}

	groupLabels := make(map[string]string, len(groups))
	for _, g := range groups {
		groupLabels[g.ID] = g.Icon + " " + g.Name
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		return nil, Errorf(ErrFormat, "naming entries sheet: %w", err)
	}
	if _, err := f.NewSheet(groupsSheet); err != nil {
		return nil, Errorf(ErrFormat, "creating groups sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, Errorf(ErrFormat, "creating header style: %w", err)
	}

	entryRows := make([][]any, 0, len(entries))
	for _, e := range entries {
		group := ungroupedLabel
		if e.GroupID != nil {
			if label, ok := groupLabels[*e.GroupID]; ok {
				group = label
			}
		}
		entryRows = append(entryRows, []any{
			e.Title, e.URL, e.Username, e.Password, e.Notes,
			group, yesNo(e.IsFavorite), formatUnix(e.CreatedAt), formatUnix(e.UpdatedAt),
		})
	}
	if err := writeSheet(f, entriesSheet, entryColumns, entryRows, bold); err != nil {
		return nil, err
	}

	groupRows := make([][]any, 0, len(groups))
	for _, g := range groups {
		groupRows = append(groupRows, []any{g.Name, g.Icon, formatUnix(g.CreatedAt), formatUnix(g.UpdatedAt)})
	}
	if err := writeSheet(f, groupsSheet, groupColumns, groupRows, bold); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, Errorf(ErrFormat, "encoding workbook: %w", err)
	}
	s.logger.Info("vault exported", "format", "xlsx", "groups", len(groups), "entries", len(entries))
	return buf.Bytes(), nil
}

// writeSheet writes a bold header row, fixed column widths and the data rows.
func writeSheet(f *excelize.File, sheet string, cols []column, rows [][]any, headerStyle int) error {
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return Errorf(ErrFormat, "column %d: %w", i+1, err)
		}
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return Errorf(ErrFormat, "setting width of %s!%s: %w", sheet, name, err)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return Errorf(ErrFormat, "writing %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return Errorf(ErrFormat, "header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return Errorf(ErrFormat, "styling %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return Errorf(ErrFormat, "row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return Errorf(ErrFormat, "writing %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// formatUnix renders Unix seconds in UTC.
func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(timeLayout)
}
