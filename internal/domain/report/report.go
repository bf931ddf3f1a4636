// Package report renders scored rosters into the compiled results
// workbook artifact.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
)

// Workbook layout constants.
const (
	defaultSheet = "Sheet1"
	scoreColumn  = "I"
	// Built-in number format "0.00" applied to the score column.
	scoreNumFmt = 2
)

// header is the fixed, ordered column schema of the compiled report.
var header = []interface{}{
	"S/N", "Full Name", "Email",
	"Test 1", "Test 2", "Test 3", "Test 4", "Test 5",
	"Score", "Status",
}

// colWidths carries the cosmetic column widths of the report.
var colWidths = []struct {
	start, end string
	width      float64
}{
	{"A", "A", 6},
	{"B", "B", 28},
	{"C", "C", 32},
	{"D", "H", 10},
	{"I", "I", 12},
	{"J", "J", 10},
}

// Option applies a configuration option to the XLSXWriter.
type Option func(*XLSXWriter)

// WithSheetName overrides the worksheet name of the artifact.
func WithSheetName(name string) Option {
	return func(w *XLSXWriter) {
		if name != "" {
			w.sheet = name
		}
	}
}

// Writer renders a scored roster into a workbook artifact at the given
// path.
type Writer interface {
	// Write builds the artifact atomically, honoring ctx for
	// cancellation before any file is touched.
	Write(ctx context.Context, path string, roster []model.RosterEntry) error
}

// XLSXWriter implements Writer on top of excelize.
type XLSXWriter struct {
	sheet string
}

// NewXLSXWriter creates a workbook writer with configuration options.
func NewXLSXWriter(opts ...Option) *XLSXWriter {
	w := &XLSXWriter{sheet: defaultSheet}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ArtifactName returns the unique artifact file name for a job.
func ArtifactName(jobID string) string {
	return fmt.Sprintf("compiled_results_%s.xlsx", jobID)
}

// Write renders the roster to path. The workbook is built in memory,
// saved to a sibling .tmp file, then renamed into place; a failed save
// leaves no partial artifact behind.
func (w *XLSXWriter) Write(ctx context.Context, path string, roster []model.RosterEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	f, err := w.build(roster)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	tmp := path + ".tmp"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// build assembles the in-memory workbook: header, one row per entry in
// roster order, widths and the score number format.
func (w *XLSXWriter) build(roster []model.RosterEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), w.sheet); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err := f.SetSheetRow(w.sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	for i, e := range roster {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWrite, err)
		}
		row := []interface{}{
			i + 1, e.FullName, e.Email,
			e.Slots[0], e.Slots[1], e.Slots[2], e.Slots[3], e.Slots[4],
			e.Score, e.Status,
		}
		if err := f.SetSheetRow(w.sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}

	for _, c := range colWidths {
		if err := f.SetColWidth(w.sheet, c.start, c.end, c.width); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: scoreNumFmt})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := f.SetColStyle(w.sheet, scoreColumn, style); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return f, nil
}
