package seedsheets

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/scoring"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/types"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
)

// reportHeader is the column schema expected of the compiled workbook.
var reportHeader = []string{
	"S/N", "Full Name", "Email",
	"Test 1", "Test 2", "Test 3", "Test 4", "Test 5",
	"Score", "Status",
}

// scoreTolerance absorbs spreadsheet number formatting on re-read.
const scoreTolerance = 0.005

// reportEntry is one parsed data row of the compiled workbook.
type reportEntry struct {
	Serial   int
	FullName string
	Email    string
	Slots    [model.PositionCount]float64
	Score    float64
	Status   string
}

// verifyReport cross-checks the downloaded workbook against the job
// summary and the scoring rules.
func verifyReport(ctx context.Context, config *Config, path string, view types.JobView, stats *Stats) error {
	log.Println("🔍 Verifying report...")

	entries, err := readReport(path)
	if err != nil {
		return err
	}

	stats.ReportRows = len(entries)

	if view.Summary != nil && len(entries) != view.Summary.Participants {
		return fmt.Errorf("report has %d rows, summary says %d participants",
			len(entries), view.Summary.Participants)
	}

	var passed, failed int
	for i, entry := range entries {
		if entry.Serial != i+1 {
			return fmt.Errorf("row %d carries serial %d", i+1, entry.Serial)
		}

		var total float64
		for _, v := range entry.Slots {
			total += v
		}
		want := scoring.Composite(total)
		if math.Abs(entry.Score-want) > scoreTolerance {
			return fmt.Errorf("row %d: score %.2f does not match recomputed %.2f",
				i+1, entry.Score, want)
		}

		wantStatus := model.GradeFail
		if scoring.Passes(entry.Score) {
			wantStatus = model.GradePass
		}
		if entry.Status != wantStatus {
			return fmt.Errorf("row %d: status %q does not match score %.2f",
				i+1, entry.Status, entry.Score)
		}

		if entry.Status == model.GradePass {
			passed++
		} else {
			failed++
		}
	}

	stats.ReportPassed = passed
	stats.ReportFailed = failed

	if view.Summary != nil {
		if passed != view.Summary.Passed || failed != view.Summary.Failed {
			return fmt.Errorf("report counts %d/%d pass/fail, summary says %d/%d",
				passed, failed, view.Summary.Passed, view.Summary.Failed)
		}
	}

	displayTopPerformers(entries, config.Verbose)

	logger.Get().Info(ctx, "report verified",
		logger.Int("rows", len(entries)),
		logger.Int("passed", passed),
		logger.Int("failed", failed))
	log.Println("✅ Report verification completed")
	return nil
}

// readReport loads and parses the compiled workbook.
func readReport(path string) ([]reportEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("report has no worksheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("report is empty")
	}

	header := rows[0]
	if len(header) != len(reportHeader) {
		return nil, fmt.Errorf("report has %d header columns, want %d", len(header), len(reportHeader))
	}
	for i, col := range reportHeader {
		if header[i] != col {
			return nil, fmt.Errorf("header column %d is %q, want %q", i+1, header[i], col)
		}
	}

	entries := make([]reportEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		entry, err := parseReportRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// parseReportRow converts one raw workbook row into a reportEntry.
func parseReportRow(row []string) (reportEntry, error) {
	if len(row) != len(reportHeader) {
		return reportEntry{}, fmt.Errorf("has %d cells, want %d", len(row), len(reportHeader))
	}

	serial, err := strconv.Atoi(row[0])
	if err != nil {
		return reportEntry{}, fmt.Errorf("bad serial %q: %w", row[0], err)
	}

	entry := reportEntry{
		Serial:   serial,
		FullName: row[1],
		Email:    row[2],
		Status:   row[len(row)-1],
	}

	for pos := 0; pos < model.PositionCount; pos++ {
		v, err := strconv.ParseFloat(row[3+pos], 64)
		if err != nil {
			return reportEntry{}, fmt.Errorf("bad result %q: %w", row[3+pos], err)
		}
		entry.Slots[pos] = v
	}

	score, err := strconv.ParseFloat(row[8], 64)
	if err != nil {
		return reportEntry{}, fmt.Errorf("bad score %q: %w", row[8], err)
	}
	entry.Score = score

	return entry, nil
}

// displayTopPerformers shows the best scores from the compiled report.
func displayTopPerformers(entries []reportEntry, verbose bool) {
	sorted := make([]reportEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	topN := 10
	if len(sorted) < topN {
		topN = len(sorted)
	}

	log.Printf("🏆 Top %d performers in the report:", topN)
	for i := 0; i < topN; i++ {
		entry := sorted[i]
		log.Printf("   %d. %s - Score: %.2f (%s)", i+1, entry.FullName, entry.Score, entry.Status)
	}

	if verbose && len(sorted) > 0 {
		avgScore := calculateAverageScore(sorted)
		maxScore := sorted[0].Score
		minScore := sorted[len(sorted)-1].Score

		log.Printf(`📊 Score statistics:
   Average: %.2f
   Maximum: %.2f
   Minimum: %.2f
`, avgScore, maxScore, minScore)
	}
}

// calculateAverageScore averages the report's composite scores.
func calculateAverageScore(entries []reportEntry) float64 {
	if len(entries) == 0 {
		return 0
	}

	sum := 0.0
	for _, entry := range entries {
		sum += entry.Score
	}

	return sum / float64(len(entries))
}
