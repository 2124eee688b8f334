// Package catalog loads clip catalogs from tabular sources.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Recognised column names, compared after lower-casing.
const (
	ColumnID          = "id"
	ColumnDescription = "description"
	ColumnCharacter   = "character"
)

// ClipRecord is one row of a clip catalog. Records are not mutated after loading.
type ClipRecord struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Character   string            `json:"character,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// FormatError reports a catalog that is missing required columns or holds
// rows that cannot become clip records.
type FormatError struct {
	Row    int // 1-based data row; 0 for header problems
	Column string
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("catalog format")
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

// LoadFile opens path and loads it as a CSV catalog.
func LoadFile(path string) ([]ClipRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a CSV catalog. The first record is the header.
// A header with no rows yields an empty, non-nil catalog.
func Load(r io.Reader) ([]ClipRecord, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &FormatError{Row: max(perr.Line-1, 0), Msg: "malformed csv", Err: err}
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, &FormatError{Column: ColumnID, Msg: "source has no header"}
	}
	return FromTable(records[0], records[1:])
}

// FromTable builds clip records from a header and its rows. Column names are
// matched case-insensitively; columns other than id, description and
// character are carried in Metadata under their lower-cased name.
func FromTable(header []string, rows [][]string) ([]ClipRecord, error) {
	cols := make([]string, len(header))
	idCol, descCol, charCol := -1, -1, -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[i] = name
		switch {
		case name == ColumnID && idCol < 0:
			idCol = i
		case name == ColumnDescription && descCol < 0:
			descCol = i
		case name == ColumnCharacter && charCol < 0:
			charCol = i
		}
	}
	if idCol < 0 {
		return nil, &FormatError{Column: ColumnID, Msg: "required column missing"}
	}
	if descCol < 0 {
		return nil, &FormatError{Column: ColumnDescription, Msg: "required column missing"}
	}

	clips := make([]ClipRecord, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for n, row := range rows {
		rowNum := n + 1
		if len(row) != len(cols) {
			return nil, &FormatError{Row: rowNum, Msg: fmt.Sprintf("expected %d fields, got %d", len(cols), len(row))}
		}
		rec := ClipRecord{
			ID:          strings.TrimSpace(row[idCol]),
			Description: strings.TrimSpace(row[descCol]),
		}
		if rec.ID == "" {
			return nil, &FormatError{Row: rowNum, Column: ColumnID, Msg: "empty id"}
		}
		if first, dup := seen[rec.ID]; dup {
			return nil, &FormatError{Row: rowNum, Column: ColumnID, Msg: fmt.Sprintf("duplicate id %q (first seen on row %d)", rec.ID, first)}
		}
		seen[rec.ID] = rowNum
		if charCol >= 0 {
			rec.Character = strings.TrimSpace(row[charCol])
		}
		for i, v := range row {
			if i == idCol || i == descCol || i == charCol {
				continue
			}
			if rec.Metadata == nil {
				rec.Metadata = make(map[string]string, len(row)-2)
			}
			rec.Metadata[cols[i]] = v
		}
		clips = append(clips, rec)
	}
	return clips, nil
}
