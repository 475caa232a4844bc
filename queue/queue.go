package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by [Bounded.Pop] once the queue is closed and
// every remaining item has been dequeued.
var ErrClosed = errors.New("queue: closed")

// Bounded is a fixed-capacity blocking queue shared between several
// producers and a single consumer. It is the backpressure primitive of
// the merge pipeline: once the queue holds Cap items, [Bounded.Push]
// blocks until the consumer pops or the queue is closed, so a slow
// consumer bounds memory instead of growing it.
//
// Close exists for teardown. A producer blocked in Push while the
// consumer has stopped popping would deadlock; Close releases every
// blocked producer and makes any later Push a discard, so no producer
// can block on the queue again. Items already queued stay poppable.
type Bounded[T any] struct {
	mu     sync.Mutex
	ch     chan T
	done   chan struct{} // closed by Close
	closed bool
}

// NewBounded creates a queue that holds at most capacity items.
// Panics if capacity <= 0.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity <= 0 {
		panic("queue: NewBounded requires capacity > 0")
	}
	return &Bounded[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Push enqueues v, blocking while the queue is at capacity. It reports
// whether the item was enqueued: once the queue is closed, Push returns
// false immediately and the item is discarded, and a push already
// blocked when [Bounded.Close] runs is released the same way.
func (q *Bounded[T]) Push(v T) bool {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return false
	}

	select {
	case q.ch <- v:
		return true
	case <-q.done:
		return false
	}
}

// Pop dequeues one item, blocking while the queue is empty. It unblocks
// early if ctx is cancelled and returns the context error. After
// [Bounded.Close], Pop keeps delivering whatever is still queued and
// returns [ErrClosed] once nothing is left.
func (q *Bounded[T]) Pop(ctx context.Context) (T, error) {
	// Items enqueued before Close stay deliverable after it.
	select {
	case v := <-q.ch:
		return v, nil
	default:
	}

	var zero T
	select {
	case v := <-q.ch:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-q.done:
		select {
		case v := <-q.ch:
			return v, nil
		default:
			return zero, ErrClosed
		}
	}
}

// TryPop dequeues one item without blocking.
// Returns false if the queue is empty.
func (q *Bounded[T]) TryPop() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Close shuts the queue for producing: every producer blocked in
// [Bounded.Push] is released with its item discarded, and every Push
// from now on returns false without blocking. Queued items remain
// available to [Bounded.Pop] and [Bounded.TryPop]. Idempotent.
func (q *Bounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Closed reports whether Close has been called.
func (q *Bounded[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of items currently queued.
// The value may be stale in concurrent contexts.
func (q *Bounded[T]) Len() int {
	return len(q.ch)
}

// Cap returns the fixed capacity set at construction.
func (q *Bounded[T]) Cap() int {
	return cap(q.ch)
}
