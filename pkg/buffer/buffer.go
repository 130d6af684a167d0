package buffer

import (
	"sync"

	"github.com/c360/telestate/errors"
)

// OverflowPolicy controls what happens when a full queue receives another
// item.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest queued item to make room.
	DropOldest OverflowPolicy = iota
	// DropNewest discards the incoming item.
	DropNewest
)

// Queue is a bounded FIFO queue safe for concurrent use. Put never blocks;
// a full queue resolves the write according to the overflow policy. Next
// blocks until an item is available or the queue is closed.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []T
	head     int
	tail     int
	size     int
	dropped  uint64
	policy   OverflowPolicy
	closed   bool
}

// New creates a queue with the given capacity. Capacities below one are
// raised to one.
func New[T any](capacity int, policy OverflowPolicy) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue[T]{
		items:  make([]T, capacity),
		policy: policy,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Put enqueues one item. Writing to a closed queue returns an error; a full
// queue drops per the overflow policy and still reports success.
func (q *Queue[T]) Put(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.WrapInvalid(errors.ErrSinkClosed, "Queue", "Put", "enqueue item")
	}

	if q.size == len(q.items) {
		q.dropped++
		if q.policy == DropNewest {
			return nil
		}
		var zero T
		q.items[q.tail] = zero
		q.tail = (q.tail + 1) % len(q.items)
		q.size--
	}

	q.items[q.head] = item
	q.head = (q.head + 1) % len(q.items)
	q.size++
	q.notEmpty.Signal()
	return nil
}

// Next removes and returns the oldest item, blocking until one is available.
// The second return is false once the queue is closed and drained.
func (q *Queue[T]) Next() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	var zero T
	if q.size == 0 {
		return zero, false
	}

	item := q.items[q.tail]
	q.items[q.tail] = zero
	q.tail = (q.tail + 1) % len(q.items)
	q.size--
	return item, true
}

// TryNext removes and returns the oldest item without blocking.
func (q *Queue[T]) TryNext() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}

	item := q.items[q.tail]
	q.items[q.tail] = zero
	q.tail = (q.tail + 1) % len(q.items)
	q.size--
	return item, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return len(q.items)
}

// Dropped returns the number of items lost to overflow.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close marks the queue closed and wakes blocked readers. Queued items
// remain readable until drained. Safe to call more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
}
