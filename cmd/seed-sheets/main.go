package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/seedsheets"
)

// Default configuration constants.
const (
	defaultParticipants = 200
	defaultOverlap      = 0.85
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultPollTimeout  = 2 * time.Minute
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		participants = flag.Int("participants", defaultParticipants, "Number of participants in the shared roster")
		overlap      = flag.Float64("overlap", defaultOverlap, "Probability that a participant appears on any given sheet")
		format       = flag.String("format", seedsheets.FormatXLSX, "Sheet file format: xlsx or csv")
		outDir       = flag.String("out", "seed_sheets", "Output directory for generated sheets")
		submit       = flag.Bool("submit", false, "Upload the sheets and compile a report against the service")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollTimeout  = flag.Duration("poll-timeout", defaultPollTimeout, "How long to wait for the compilation job")
		logFile      = flag.String("log", "", "Log file for tool output (default: seed_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seedsheets.ShowHelp()
		return
	}

	// Setup logging
	if err := seedsheets.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create seeding configuration
	config := &seedsheets.Config{
		BaseURL:      *baseURL,
		Participants: *participants,
		Overlap:      *overlap,
		Format:       *format,
		OutDir:       *outDir,
		Submit:       *submit,
		Workers:      *workers,
		Timeout:      *timeout,
		PollTimeout:  *pollTimeout,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	// Run the seeding workflow
	if err := seedsheets.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seeding failed: " + err.Error() + "\n")
		return
	}
}
