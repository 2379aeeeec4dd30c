// Package handoff provides the bounded single-producer single-consumer
// queue used to transfer freshly built node state from the control
// context to the audio context.
//
// Neither side ever blocks: the producer drops the item when the queue is
// full, which is acceptable because queued items represent monotonically
// superseding state, and the consumer polls with TryPop or Drain at the
// top of a block. Ownership of an item transfers exactly once.
package handoff

import "sync/atomic"

// Queue is a bounded SPSC ring. Exactly one goroutine may push and
// exactly one may pop; concurrent producers or consumers violate the
// contract.
type Queue[T any] struct {
	slots []T
	mask  uint64

	// Monotonic positions. The producer owns tail, the consumer owns head.
	head atomic.Uint64
	tail atomic.Uint64
}

// New returns a queue with capacity rounded up to the next power of two,
// minimum 2.
func New[T any](capacity int) *Queue[T] {
	n := uint64(2)
	for int(n) < capacity {
		n <<= 1
	}
	return &Queue[T]{
		slots: make([]T, n),
		mask:  n - 1,
	}
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return len(q.slots)
}

// Len returns the number of queued items. The result may be stale when
// called concurrently with the other side.
func (q *Queue[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Push enqueues v without blocking. It returns false, dropping v, if the
// queue is full. Producer side only.
func (q *Queue[T]) Push(v T) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() == uint64(len(q.slots)) {
		return false
	}
	q.slots[tail&q.mask] = v
	q.tail.Store(tail + 1)
	return true
}

// TryPop dequeues into dst without blocking. It returns false if the
// queue is empty. Consumer side only.
func (q *Queue[T]) TryPop(dst *T) bool {
	head := q.head.Load()
	if head == q.tail.Load() {
		return false
	}
	var zero T
	*dst = q.slots[head&q.mask]
	// release the slot before publishing the new head, so the producer
	// never writes a slot the consumer is still reading
	q.slots[head&q.mask] = zero
	q.head.Store(head + 1)
	return true
}

// Drain pops every queued item and keeps only the most recent one in
// dst. It returns false, leaving dst untouched, if the queue was empty.
// Consumer side only.
func (q *Queue[T]) Drain(dst *T) bool {
	popped := false
	for q.TryPop(dst) {
		popped = true
	}
	return popped
}
