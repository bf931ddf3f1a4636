// Package model contains domain models passed between layers.
package model

import "time"

// JobStatus is the lifecycle state of a compilation job.
type JobStatus string

// Job lifecycle states. Processing is the only non-terminal state.
const (
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusError      JobStatus = "error"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Job is the orchestration record for one compilation run. It is owned
// by the orchestrator; other layers see snapshots only.
type Job struct {
	ID          string
	Status      JobStatus
	CreatedAt   time.Time
	CompletedAt time.Time // zero until the job reaches a terminal state
	InputRefs   []string  // five source file paths in position order
	ReportPath  string    // set on completion
	ReportName  string    // suggested download name, set on completion
	Summary     Summary   // set on completion
	Error       string    // set on failure
}

// Summary holds the counts recorded for a completed job.
type Summary struct {
	Participants int
	Passed       int
	Failed       int
}

// Dispatch is the queue element handed to pipeline workers.
type Dispatch struct {
	JobID     string
	InputRefs []string
}
