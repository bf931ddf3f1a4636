// Package sheet reads tabular spreadsheet files into an in-memory table
// and locates the semantic columns the compiler consumes. CSV and TSV
// go through encoding/csv; xlsx workbooks go through excelize, first
// sheet only.
package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
)

// Table is one parsed spreadsheet: the cleaned header row plus data rows.
// Rows may be ragged; consumers guard cell access by index.
type Table struct {
	Header []string
	Rows   [][]string
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// Records extracts the three semantic cells of every data row using the
// resolved column positions. Cells beyond a ragged row's end read as "".
func (t *Table) Records(cols Columns) []model.SourceRecord {
	records := make([]model.SourceRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, model.SourceRecord{
			FullName:  cellAt(row, cols.Name),
			Email:     cellAt(row, cols.Email),
			RawResult: cellAt(row, cols.Result),
		})
	}
	return records
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Read parses the file at path into a Table. The format is chosen by
// extension: .csv, .tsv, or .xlsx. The first row is the header.
func Read(path string) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return readDelimited(path, ',')
	case ".tsv":
		return readDelimited(path, '\t')
	case ".xlsx":
		return readWorkbook(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

func readDelimited(path string, comma rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return tableFromRows(rows)
}

func readWorkbook(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return tableFromRows(rows)
}

func tableFromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	t := &Table{Header: cleanRow(rows[0])}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		t.Rows = append(t.Rows, cleanRow(row))
	}
	return t, nil
}

func cleanRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = cleanCell(cell)
	}
	return out
}

// cleanCell trims whitespace and a UTF-8 BOM some exporters prepend.
func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\uFEFF")
	return strings.TrimSpace(v)
}
