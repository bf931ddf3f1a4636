package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/metrics"
)

// Mutex-guarded, in-memory Store implementation.
//
// Ordering: List returns jobs by creation time DESC, then ID ASC
// (deterministic). Reads return value snapshots; a job's InputRefs are
// never mutated after creation.

// defaultSweepInterval is how often the retention janitor scans.
const defaultSweepInterval = time.Minute

// MemoryStore implements Store with a map guarded by a RWMutex and an
// optional retention janitor that expires terminal jobs.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]model.Job

	retention     time.Duration // zero keeps terminal jobs forever
	sweepInterval time.Duration
	now           func() time.Time

	// Janitor goroutine management
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs a job store with configuration options.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:          make(map[string]model.Job),
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	if s.retention > 0 {
		s.startJanitor(ctx)
	}

	return s
}

// startJanitor starts a background goroutine that sweeps expired
// terminal jobs at the configured interval.
func (s *MemoryStore) startJanitor(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.sweepExpired()
			}
		}
	}()
}

// sweepExpired drops terminal jobs whose completion time fell out of
// the retention window. Processing jobs are never swept.
func (s *MemoryStore) sweepExpired() {
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.byID {
		if job.Status.Terminal() && job.CompletedAt.Before(cutoff) {
			delete(s.byID, id)
		}
	}
}

// Close gracefully shuts down the retention janitor.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Create implements Store.Create.
func (s *MemoryStore) Create(ctx context.Context, job model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[job.ID]; ok {
		metrics.RecordErrorByComponent("repository", "exists")
		return ErrExists
	}
	s.byID[job.ID] = job
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Job{}, ErrNotFound
	}
	return job, nil
}

// List implements Store.List.
func (s *MemoryStore) List(ctx context.Context) []model.Job {
	s.mu.RLock()
	out := make([]model.Job, 0, len(s.byID))
	for _, job := range s.byID {
		out = append(out, job)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// Complete implements Store.Complete.
func (s *MemoryStore) Complete(ctx context.Context, id, reportPath, reportName string, sum model.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	if job.Status.Terminal() {
		metrics.RecordErrorByComponent("repository", "terminal")
		return ErrTerminal
	}

	job.Status = model.StatusComplete
	job.CompletedAt = s.now()
	job.ReportPath = reportPath
	job.ReportName = reportName
	job.Summary = sum
	s.byID[id] = job
	return nil
}

// Fail implements Store.Fail.
func (s *MemoryStore) Fail(ctx context.Context, id, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	if job.Status.Terminal() {
		metrics.RecordErrorByComponent("repository", "terminal")
		return ErrTerminal
	}

	job.Status = model.StatusError
	job.CompletedAt = s.now()
	job.Error = msg
	s.byID[id] = job
	return nil
}

// Count returns the total number of jobs.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
