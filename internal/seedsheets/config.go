package seedsheets

import (
	"time"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/types"
)

// Config holds configuration for one seeding run
type Config struct {
	BaseURL      string        // Base URL of the service
	Participants int           // Size of the shared roster
	Overlap      float64       // Probability a participant appears on any given sheet
	Format       string        // Sheet file format: xlsx or csv
	OutDir       string        // Directory for generated sheets and the report
	Submit       bool          // Drive a running service after generating
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	PollTimeout  time.Duration // How long to wait for the job
	LogFile      string        // Log file for tool output
	Verbose      bool          // Enable verbose logging
}

// Participant is one synthetic roster member with per-test results
type Participant struct {
	FullName string
	Email    string
	Results  [model.PositionCount]float64 // per-position raw results
	Present  [model.PositionCount]bool    // which sheets carry the participant
}

// submitRequest is the job submission payload
type submitRequest struct {
	Refs []string `json:"refs"`
}

// submitResponse is the response from job submission
type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// uploadResponse is the response from a sheet upload
type uploadResponse struct {
	Ref        string                 `json:"ref"`
	Validation types.ValidationResult `json:"validation"`
}

// Stats holds seeding statistics
type Stats struct {
	ParticipantsGenerated int
	SheetsWritten         int
	RowsWritten           int
	SheetsUploaded        int
	ReportRows            int
	ReportPassed          int
	ReportFailed          int
	StartTime             time.Time
	EndTime               time.Time
	Duration              time.Duration
}
