package hkjc

import (
	"regexp"
	"strings"

	"hkracing-backend/lib/textutil"
)

// RowShape is the gate a table row must pass to count as a data row.
type RowShape struct {
	MinCells  int
	FirstCell *regexp.Regexp
}

func (s RowShape) Match(row []string) bool {
	if len(row) < s.MinCells {
		return false
	}
	if s.FirstCell != nil && !s.FirstCell.MatchString(row[0]) {
		return false
	}
	return true
}

// Column maps one logical field to a table column, either through a
// header-text lookup or a fixed offset fallback for header-less pages.
type Column struct {
	Field  string
	Header string
	Offset int
}

// ColumnMap is the configuration for parsing one table family's rows.
type ColumnMap struct {
	Shape   RowShape
	Columns []Column
}

// PartialRecord is one data row's extracted fields before assembly.
type PartialRecord map[string]string

// numericCell keeps a cell only when it parses as an integer. weights,
// draws and gates are numeric on well-formed pages; a value that does
// not parse is dropped from the record, never the row.
func numericCell(cell string) string {
	if _, ok := textutil.ParseInt(cell); !ok {
		return ""
	}
	return cell
}

// resolve fixes each column's index against a header row. columns
// whose header text is absent keep their fixed offset.
func (m ColumnMap) resolve(header []string) map[string]int {
	indices := make(map[string]int, len(m.Columns))
	for _, col := range m.Columns {
		indices[col.Field] = col.Offset
		if col.Header == "" {
			continue
		}
		for i, cell := range header {
			if strings.Contains(cell, col.Header) {
				indices[col.Field] = i
				break
			}
		}
	}
	return indices
}

// headerRow finds the first row containing any configured header text.
// returns -1 when the table has no recognizable header.
func (m ColumnMap) headerRow(rows [][]string) int {
	for i, row := range rows {
		joined := strings.Join(row, " ")
		for _, col := range m.Columns {
			if col.Header != "" && strings.Contains(joined, col.Header) {
				return i
			}
		}
	}
	return -1
}

// Parse walks a table's rows positionally: it locates the header row,
// resolves column indices, then extracts the configured fields from
// every row passing the shape check. malformed rows are skipped, not
// errors.
func (m ColumnMap) Parse(t Table) []PartialRecord {
	headerIdx := m.headerRow(t.Rows)

	var header []string
	start := 0
	if headerIdx >= 0 {
		header = t.Rows[headerIdx]
		start = headerIdx + 1
	}
	indices := m.resolve(header)

	var out []PartialRecord
	for _, row := range t.Rows[start:] {
		if !m.Shape.Match(row) {
			continue
		}
		rec := PartialRecord{}
		for field, idx := range indices {
			if idx >= 0 && idx < len(row) {
				rec[field] = row[idx]
			}
		}
		out = append(out, rec)
	}
	return out
}
