package seedsheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// caseVariantRate is the fraction of rows on later sheets that re-case
// the participant name, the way a second exporter would.
const caseVariantRate = 0.1

// sheetHeaders carries the header row written to each positional sheet.
// The variants mirror how independently produced exports label the same
// three columns; the compiler has to resolve all of them.
var sheetHeaders = [model.PositionCount][]string{
	{"Full Name", "Email", "Result"},
	{"Name", "E-mail", "Score"},
	{"Participant", "Mail", "Test Result"},
	{"FullName", "Email", "Mark"},
	{"Full Name", "Email Address", "Result"},
}

// sheetRow is one data row destined for a positional sheet.
type sheetRow struct {
	name   string
	email  string
	result float64
}

// writeSheets renders the roster into the five positional sheet files
// and returns their paths in position order.
func writeSheets(ctx context.Context, config *Config, roster []Participant, stats *Stats) ([]string, error) {
	if err := os.MkdirAll(config.OutDir, directoryPermission); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, model.PositionCount)
	for pos := 0; pos < model.PositionCount; pos++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during sheet writing: %w", err)
		}

		rows := collectRows(roster, pos)
		shuffleRows(rows)

		filename := fmt.Sprintf("test%d_results.%s", pos+1, config.Format)
		path := filepath.Join(config.OutDir, filename)

		var err error
		switch config.Format {
		case FormatCSV:
			err = writeCSVSheet(path, sheetHeaders[pos], rows)
		default:
			err = writeXLSXSheet(path, sheetHeaders[pos], rows)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to write sheet %d: %w", pos+1, err)
		}

		paths[pos] = path
		stats.SheetsWritten++
		stats.RowsWritten += len(rows)
		logger.Get().Info(ctx, "sheet written",
			logger.String("path", path),
			logger.Int("rows", len(rows)))
	}

	return paths, nil
}

// collectRows picks the participants present on one positional sheet.
func collectRows(roster []Participant, pos int) []sheetRow {
	rows := make([]sheetRow, 0, len(roster))
	for _, p := range roster {
		if !p.Present[pos] {
			continue
		}

		name := p.FullName
		if pos > 0 && getRandomFloat() < caseVariantRate {
			name = strings.ToUpper(name)
		}

		rows = append(rows, sheetRow{name: name, email: p.Email, result: p.Results[pos]})
	}
	return rows
}

// shuffleRows randomizes row order so no sheet leaks roster order.
func shuffleRows(rows []sheetRow) {
	for i := len(rows) - 1; i > 0; i-- {
		j := randomInt(i + 1)
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// writeCSVSheet writes one sheet as a comma-separated file.
func writeCSVSheet(path string, header []string, rows []sheetRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close sheet file", logger.Error(err))
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.name, row.email, strconv.FormatFloat(row.result, 'f', 2, 64)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// writeXLSXSheet writes one sheet as a workbook with numeric result cells.
func writeXLSXSheet(path string, header []string, rows []sheetRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)

	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to place row: %w", err)
		}
		cells := []interface{}{row.name, row.email, row.result}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return f.SaveAs(path)
}
