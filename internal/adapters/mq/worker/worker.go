// Package worker defines worker contracts for draining the dispatch
// queue and running compilation pipelines.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/adapters/mq/queue"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 1
	gaugeUpdateInterval   = 5 * time.Second
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Dispatch abstracts what workers read off the queue.
// Using the model.Dispatch type for consistency.
type Dispatch = model.Dispatch

// Runner executes the compilation pipeline for one dispatch. The
// implementation records the outcome on the job itself; the returned
// error is for worker-side observability.
type Runner interface {
	Run(ctx context.Context, d Dispatch) error
}

// Queue defines how workers receive dispatches.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Dispatch
}

// Worker processes dispatches using the provided Runner.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will finish the dispatch in flight before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing dispatches.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	name   string

	// Busy tracking shared with the pool gauges
	busy *atomic.Int64

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	dispatchChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case d, ok := <-dispatchChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if w.busy != nil {
				w.busy.Add(1)
			}
			if err := w.processDispatch(ctx, d); err != nil {
				w.logger.Error(ctx, "error processing dispatch", logger.Error(err))
			}
			if w.busy != nil {
				w.busy.Add(-1)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signalStop()

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// signalStop closes the shutdown channel at most once.
func (w *InMemoryWorker) signalStop() {
	select {
	case <-w.shutdown:
		// Channel already closed
	default:
		close(w.shutdown)
	}
}

// processDispatch handles a single dispatch.
func (w *InMemoryWorker) processDispatch(ctx context.Context, d queue.Dispatch) error {
	// Track pipeline latency per dispatch
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerJobLatency(float64(latency))
	}()

	if err := w.runner.Run(ctx, d); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "pipeline_error")
		return fmt.Errorf("pipeline failed for job %s: %w", d.JobID, err)
	}
	return nil
}

// Pool manages multiple workers draining one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	// Busy worker tracking for the gauges
	busy atomic.Int64

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, runner Runner) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(
			q,
			runner,
			WithName("worker-"+strconv.Itoa(i)),
		)
		w.busy = &pool.busy
		pool.workers[i] = w
	}

	// Initialize worker gauges
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}

	// Start gauge updater
	go p.startGaugeUpdater(ctx)
}

// startGaugeUpdater refreshes the busy/idle gauges on a ticker.
func (p *Pool) startGaugeUpdater(ctx context.Context) {
	ticker := time.NewTicker(gaugeUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateGauges()
		}
	}
}

// updateGauges publishes the busy/idle worker split.
func (p *Pool) updateGauges() {
	busy := int(p.busy.Load())
	metrics.UpdateWorkerActiveCount(busy)
	metrics.UpdateWorkerIdleCount(len(p.workers) - busy)
}

// Stop stops all workers without draining the queue backlog.
func (p *Pool) Stop() {
	p.signalStop()

	for _, w := range p.workers {
		w.signalStop()
		select {
		case <-w.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool. The queue is
// closed first; workers drain the remaining backlog and exit when the
// dispatch channel closes. Workers still running at the deadline are
// stopped directly.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new dispatches
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.signalStop()
		}
	}

	p.signalStop()
	return nil
}

// signalStop closes the pool shutdown channel at most once.
func (p *Pool) signalStop() {
	select {
	case <-p.shutdown:
		// Channel already closed
	default:
		close(p.shutdown)
	}
}
