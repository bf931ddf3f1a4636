package seedsheets

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "seed_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the sheet seeding tool.
func ShowHelp() {
	os.Stdout.WriteString(`MLJ Sheet Seeder
================

Generates five sample per-test result sheets sharing one participant
roster, and can optionally drive a running compiler end to end:
upload, submit, poll, download and verify the compiled report.

Usage:
  go run cmd/seed-sheets/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -participants int
        Number of participants in the shared roster (default 200)
  -overlap float
        Probability that a participant appears on any given sheet (default 0.85)
  -format string
        Sheet file format: xlsx or csv (default "xlsx")
  -out string
        Output directory for generated sheets (default "seed_sheets")
  -submit
        Upload the sheets and compile a report against the service
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -poll-timeout duration
        How long to wait for the compilation job (default 2m)
  -log string
        Log file for tool output (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Generate five xlsx sheets into ./seed_sheets
  go run cmd/seed-sheets/main.go

  # Generate csv sheets with a bigger roster and less overlap
  go run cmd/seed-sheets/main.go -format csv -participants 500 -overlap 0.6

  # Generate, upload, compile and verify against a local service
  go run cmd/seed-sheets/main.go -submit -url http://localhost:9080

  # Verbose run with a custom log file
  go run cmd/seed-sheets/main.go -submit -verbose -log my_seed.log
`)
}
