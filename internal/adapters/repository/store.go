// Package repository defines the job store interface and errors.
package repository

import (
	"context"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
)

// Store provides read/write access to job state.
type Store interface {
	// Create persists a new job record.
	// Returns ErrExists if the identifier is already taken.
	Create(ctx context.Context, job model.Job) error

	// Get returns a snapshot of a job.
	// Returns ErrNotFound if the job is unknown.
	Get(ctx context.Context, id string) (model.Job, error)

	// List returns snapshots of all jobs, newest first.
	List(ctx context.Context) []model.Job

	// Delete removes a job record.
	// Returns ErrNotFound if the job is unknown.
	Delete(ctx context.Context, id string) error

	// Complete transitions a job to its terminal complete state and
	// attaches the report reference and summary counts.
	// Returns ErrTerminal if the job already reached a terminal state.
	Complete(ctx context.Context, id, reportPath, reportName string, sum model.Summary) error

	// Fail transitions a job to its terminal error state with a message.
	// Returns ErrTerminal if the job already reached a terminal state.
	Fail(ctx context.Context, id, msg string) error

	// Count returns the number of jobs tracked in the store.
	Count(ctx context.Context) int
}
