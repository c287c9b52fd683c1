package queue

import "errors"

var (
	// ErrAllocation indicates that storage for a queue, an element or a string copy
	// could not be obtained from the allocator.
	ErrAllocation = errors.New("queue: allocation failed")

	// ErrNilQueue indicates that an operation was attempted on a nil queue.
	ErrNilQueue = errors.New("queue: queue is nil")

	// ErrEmptyQueue indicates that a removal was attempted on an empty queue.
	ErrEmptyQueue = errors.New("queue: queue is empty")

	// ErrNoBuffer indicates that the head element was removed but its value was not
	// delivered because no output buffer was supplied.
	ErrNoBuffer = errors.New("queue: no buffer supplied, value discarded")
)
