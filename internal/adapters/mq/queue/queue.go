// Package queue defines the contract for enqueuing and consuming
// pipeline dispatches.
//
// Implementations may use channels or more advanced structures. The
// default is an in-memory bounded queue.
package queue

import (
	"context"
	"sync"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/metrics"
)

// defaultCapacity bounds the dispatch backlog.
const defaultCapacity = 64

// Dispatch is the payload type flowing through the queue.
type Dispatch = model.Dispatch

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a dispatch to the queue.
	// Returns false if the queue is full or closed and the dispatch was dropped.
	Enqueue(ctx context.Context, d Dispatch) bool

	// Dequeue returns a channel that will receive dispatches as they become
	// available. The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Dispatch

	// Len returns the current number of queued dispatches.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, nothing can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	dispatches chan Dispatch
	capacity   int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.dispatches = make(chan Dispatch, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

// Enqueue adds a dispatch to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, d Dispatch) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueDrop()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.dispatches <- d:
		metrics.RecordQueueEnqueue()
		q.publishGauges()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueDrop()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueDrop()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive dispatches as they become
// available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Dispatch {
	// Wrap the channel to track dequeue metrics
	out := make(chan Dispatch)
	go func() {
		defer close(out)
		for d := range q.dispatches {
			select {
			case out <- d:
				metrics.RecordQueueDequeue()
				q.publishGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued dispatches.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.dispatches)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	// Close the dispatch channel to signal consumers to stop
	close(q.dispatches)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// publishGauges refreshes the size and utilization gauges.
func (q *InMemoryQueue) publishGauges() {
	size := len(q.dispatches)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
