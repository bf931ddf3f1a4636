// Package types contains common types used across the application
package types

import "time"

// JobView is the externally visible snapshot of a job, shared by the
// HTTP API and the WebSocket feed.
type JobView struct {
	ID          string      `json:"id"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	InputCount  int         `json:"input_count"`
	ReportName  string      `json:"report_name,omitempty"`
	Summary     *JobSummary `json:"summary,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// JobSummary carries the roster counts of a completed job.
type JobSummary struct {
	Participants int `json:"participants"`
	Passed       int `json:"passed"`
	Failed       int `json:"failed"`
}

// Stats is the operational snapshot served by the stats endpoint.
type Stats struct {
	QueueLength   int `json:"queue_length"`
	QueueCapacity int `json:"queue_capacity"`
	Workers       int `json:"workers"`
	Jobs          int `json:"jobs"`
	Processing    int `json:"processing"`
	Completed     int `json:"completed"`
	Failed        int `json:"failed"`
}

// ValidationResult is the outcome of a synchronous per-file check.
type ValidationResult struct {
	Ref      string `json:"ref"`
	Valid    bool   `json:"valid"`
	RowCount int    `json:"row_count,omitempty"`
	Message  string `json:"message,omitempty"`
}
