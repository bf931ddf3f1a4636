// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	dispatchqueue "github.com/io-m1/MLJResultsCompiler-sub002/internal/adapters/mq/queue"
	workerpool "github.com/io-m1/MLJResultsCompiler-sub002/internal/adapters/mq/worker"
	repository "github.com/io-m1/MLJResultsCompiler-sub002/internal/adapters/repository"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/report"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/types"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/validate"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/metrics"
)

// Service implements the compilation workflow behind the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	queue   dispatchqueue.Queue
	checker validate.Checker
	writer  report.Writer
	pool    *workerpool.Pool

	// Configuration
	workerCount     int
	queueSize       int
	uploadDir       string
	reportDir       string
	maxUploadBytes  int64
	pipelineTimeout time.Duration
	retention       time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of pipeline workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the dispatch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithUploadDir sets the directory for stored uploads.
func WithUploadDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.uploadDir = dir
		}
	}
}

// WithReportDir sets the directory for report artifacts.
func WithReportDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.reportDir = dir
		}
	}
}

// WithMaxUploadBytes sets the per-file upload size limit.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithPipelineTimeout bounds a single pipeline run. Zero disables the
// bound.
func WithPipelineTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.pipelineTimeout = d
		}
	}
}

// WithRetention sets how long terminal jobs are kept. Zero keeps them
// until process exit.
func WithRetention(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.retention = ttl
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore injects a job store, replacing the default in-memory one.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithQueue injects a dispatch queue, replacing the default bounded one.
func WithQueue(q dispatchqueue.Queue) Option {
	return func(s *Service) {
		if q != nil {
			s.queue = q
		}
	}
}

// WithChecker injects an intake checker.
func WithChecker(c validate.Checker) Option {
	return func(s *Service) {
		if c != nil {
			s.checker = c
		}
	}
}

// WithWriter injects a report writer.
func WithWriter(w report.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     1,
		queueSize:       64,
		uploadDir:       filepath.Join("data", "uploads"),
		reportDir:       filepath.Join("data", "reports"),
		maxUploadBytes:  10 << 20,
		pipelineTimeout: 10 * time.Minute,
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting results compiler service...")

	// Initialize components not injected through options
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx,
			repository.WithRetention(s.retention),
		)
	}
	if s.queue == nil {
		s.queue = dispatchqueue.NewInMemoryQueue(
			dispatchqueue.WithCapacity(s.queueSize),
		)
	}
	if s.checker == nil {
		s.checker = validate.NewFileChecker(
			validate.WithMaxBytes(s.maxUploadBytes),
		)
	}
	if s.writer == nil {
		s.writer = report.NewXLSXWriter()
	}

	// Create and start the worker pool running the pipeline
	s.pool = workerpool.NewPool(s.workerCount, s.queue, &pipelineAdapter{svc: s})
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "results compiler service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("reportDir", s.reportDir),
	)

	return nil
}

// Stop gracefully shuts down the service. The queue is closed first so
// workers drain the backlog before stopping.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping results compiler service...")

	// Shut down the worker pool; this also closes the queue
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	// Close the job store
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	// Drop the stopped components; a later Start builds fresh ones
	s.pool = nil
	s.queue = nil
	s.store = nil

	s.started = false
	s.logger.Info(ctx, "results compiler service stopped")
}

// Submit registers a compilation job for the given five input refs and
// dispatches it for asynchronous processing. The returned job ID can be
// polled with Status.
func (s *Service) Submit(ctx context.Context, refs []string) (string, error) {
	if len(refs) != model.PositionCount {
		metrics.RecordJobRejected()
		metrics.RecordValidationFailure("input_count")
		return "", fmt.Errorf("%w: got %d", ErrBadRequest, len(refs))
	}

	job := model.Job{
		ID:        uuid.NewString(),
		Status:    model.StatusProcessing,
		CreatedAt: time.Now(),
		InputRefs: append([]string(nil), refs...),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create job record: %w", err)
	}

	d := model.Dispatch{JobID: job.ID, InputRefs: job.InputRefs}
	if !s.queue.Enqueue(ctx, d) {
		// A refused dispatch never leaves a ghost processing record.
		if err := s.store.Delete(ctx, job.ID); err != nil {
			s.logger.Error(ctx, "failed to remove refused job",
				logger.String("jobID", job.ID),
				logger.Error(err),
			)
		}
		metrics.RecordJobRejected()
		return "", fmt.Errorf("%w: job %s refused", ErrBackpressure, job.ID)
	}

	metrics.RecordJobSubmitted()
	s.logger.Info(ctx, "job submitted",
		logger.String("jobID", job.ID),
		logger.Int("inputs", len(refs)),
	)
	return job.ID, nil
}

// Status returns the externally visible snapshot of a job.
func (s *Service) Status(ctx context.Context, jobID string) (types.JobView, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return types.JobView{}, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	return toJobView(job), nil
}

// ListJobs returns snapshots of all jobs, newest first.
func (s *Service) ListJobs(ctx context.Context) []types.JobView {
	jobs := s.store.List(ctx)
	views := make([]types.JobView, len(jobs))
	for i, job := range jobs {
		views[i] = toJobView(job)
	}
	return views
}

// Report opens the compiled artifact of a completed job. The caller
// owns the returned handle.
func (s *Service) Report(ctx context.Context, jobID string) (io.ReadCloser, string, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	switch job.Status {
	case model.StatusProcessing:
		return nil, "", fmt.Errorf("%w: job %s", ErrNotReady, jobID)
	case model.StatusError:
		return nil, "", fmt.Errorf("%w: %s", ErrProcessing, job.Error)
	}

	f, err := os.Open(job.ReportPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrArtifactMissing, job.ReportName)
		}
		return nil, "", fmt.Errorf("failed to open report artifact: %w", err)
	}
	return f, job.ReportName, nil
}

// Validate runs the synchronous intake check on one input ref. Check
// failures are reported in the result, not as errors; the error return
// is reserved for cancellation.
func (s *Service) Validate(ctx context.Context, ref string) (types.ValidationResult, error) {
	rows, err := s.checker.Check(ctx, ref)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return types.ValidationResult{}, err
		}
		metrics.RecordValidationFailure(validationReason(err))
		return types.ValidationResult{Ref: ref, Valid: false, Message: err.Error()}, nil
	}
	return types.ValidationResult{Ref: ref, Valid: true, RowCount: rows}, nil
}

// SaveUpload stores one uploaded sheet under the upload directory and
// validates it immediately. Files failing the check are removed and the
// returned ref is empty.
func (s *Service) SaveUpload(ctx context.Context, name string, r io.Reader) (types.ValidationResult, string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return types.ValidationResult{}, "", fmt.Errorf("failed to prepare upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(name))
	ref := filepath.Join(s.uploadDir, uuid.NewString()+ext)

	f, err := os.Create(ref)
	if err != nil {
		return types.ValidationResult{}, "", fmt.Errorf("failed to store upload: %w", err)
	}
	// Bound the disk write; the checker rejects anything over the limit.
	_, copyErr := io.Copy(f, io.LimitReader(r, s.maxUploadBytes+1))
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(ref)
		return types.ValidationResult{}, "", fmt.Errorf("failed to store upload: %w", errors.Join(copyErr, closeErr))
	}

	res, err := s.Validate(ctx, ref)
	if err != nil {
		_ = os.Remove(ref)
		return types.ValidationResult{}, "", err
	}
	if !res.Valid {
		_ = os.Remove(ref)
		res.Ref = name
		return res, "", nil
	}

	metrics.RecordUploadStored()
	s.logger.Info(ctx, "upload stored",
		logger.String("name", name),
		logger.String("ref", ref),
		logger.Int("rows", res.RowCount),
	)
	return res, ref, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		QueueCapacity: s.queueSize,
		Workers:       s.workerCount,
	}

	if !s.started {
		return stats
	}

	stats.QueueLength = s.queue.Len(ctx)
	for _, job := range s.store.List(ctx) {
		stats.Jobs++
		switch job.Status {
		case model.StatusProcessing:
			stats.Processing++
		case model.StatusComplete:
			stats.Completed++
		case model.StatusError:
			stats.Failed++
		}
	}
	return stats
}

// toJobView converts a job record to its external snapshot.
func toJobView(job model.Job) types.JobView {
	view := types.JobView{
		ID:         job.ID,
		Status:     string(job.Status),
		CreatedAt:  job.CreatedAt,
		InputCount: len(job.InputRefs),
		Error:      job.Error,
	}
	if job.Status.Terminal() {
		completed := job.CompletedAt
		view.CompletedAt = &completed
	}
	if job.Status == model.StatusComplete {
		view.ReportName = job.ReportName
		view.Summary = &types.JobSummary{
			Participants: job.Summary.Participants,
			Passed:       job.Summary.Passed,
			Failed:       job.Summary.Failed,
		}
	}
	return view
}

// validationReason maps intake check errors to a metrics label.
func validationReason(err error) string {
	switch {
	case errors.Is(err, validate.ErrTooLarge):
		return "too_large"
	case errors.Is(err, validate.ErrSchema):
		return "schema"
	case errors.Is(err, validate.ErrFormat):
		return "format"
	default:
		return "other"
	}
}
