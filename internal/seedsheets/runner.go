package seedsheets

import (
	"context"
	"fmt"
	"time"

	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
)

// Run executes the complete seeding workflow.
func Run(ctx context.Context, config *Config) error {
	if err := validateConfig(config); err != nil {
		return err
	}

	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting sheet seeding",
		logger.String("baseURL", config.BaseURL),
		logger.Int("participants", config.Participants),
		logger.Float64("overlap", config.Overlap),
		logger.String("format", config.Format),
		logger.String("outDir", config.OutDir),
		logger.Int("workers", config.Workers),
		logger.Any("submit", config.Submit),
		logger.Any("verbose", config.Verbose))

	// Step 1: Generate the shared roster
	roster, err := generateRoster(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("roster generation failed: %w", err)
	}

	// Step 2: Write the five positional sheets
	paths, err := writeSheets(ctx, config, roster, stats)
	if err != nil {
		return fmt.Errorf("sheet writing failed: %w", err)
	}

	if !config.Submit {
		stats.EndTime = time.Now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
		displayFinalStats(stats)
		logger.Get().Info(ctx, "sheets ready for upload", logger.String("outDir", config.OutDir))
		return nil
	}

	// Step 3: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 4: Upload the sheets
	refs, err := uploadSheets(ctx, config, paths, stats)
	if err != nil {
		return fmt.Errorf("sheet upload failed: %w", err)
	}

	// Step 5: Submit the compilation job
	jobID, err := submitJob(ctx, config, refs)
	if err != nil {
		return fmt.Errorf("job submission failed: %w", err)
	}

	// Step 6: Wait for the job to finish
	view, err := waitForJob(ctx, config, jobID)
	if err != nil {
		return fmt.Errorf("job polling failed: %w", err)
	}

	// Step 7: Download the compiled report
	reportPath, err := downloadReport(ctx, config, jobID)
	if err != nil {
		return fmt.Errorf("report download failed: %w", err)
	}

	// Step 8: Verify the report against the summary
	if err := verifyReport(ctx, config, reportPath, view, stats); err != nil {
		return fmt.Errorf("report verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "seeding completed successfully")
	return nil
}

// validateConfig rejects flag combinations the workflow cannot honor.
func validateConfig(config *Config) error {
	if config.Participants <= 0 {
		return fmt.Errorf("participants must be positive, got %d", config.Participants)
	}
	if config.Participants > maxParticipants {
		return fmt.Errorf("participants must be at most %d, got %d", maxParticipants, config.Participants)
	}
	if config.Overlap <= 0 || config.Overlap > 1 {
		return fmt.Errorf("overlap must be in (0, 1], got %g", config.Overlap)
	}
	if config.Format != FormatXLSX && config.Format != FormatCSV {
		return fmt.Errorf("unsupported sheet format %q", config.Format)
	}
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final seeding statistics.
func displayFinalStats(stats *Stats) {
	var passRate, rowsPerSecond float64

	if stats.ReportRows > 0 {
		passRate = float64(stats.ReportPassed) / float64(stats.ReportRows) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		rowsPerSecond = float64(stats.RowsWritten) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("participantsGenerated", stats.ParticipantsGenerated),
		logger.Int("sheetsWritten", stats.SheetsWritten),
		logger.Int("rowsWritten", stats.RowsWritten),
		logger.Int("sheetsUploaded", stats.SheetsUploaded),
		logger.Int("reportRows", stats.ReportRows),
		logger.Int("reportPassed", stats.ReportPassed),
		logger.Int("reportFailed", stats.ReportFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("passRate", passRate),
		logger.Float64("rowsPerSecond", rowsPerSecond))
}
