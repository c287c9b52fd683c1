// Package fifo provides a small slice-backed FIFO buffer used internally by the
// command interpreter to buffer lexer tokens.
package fifo

// Queue is a first-in first-out buffer of values of type T.
// The zero value is an empty queue ready to use.
type Queue[T any] struct {
	items []T
	head  int
}

// New creates a Queue with room for prealloc items before it has to grow.
func New[T any](prealloc int) *Queue[T] {
	return &Queue[T]{items: make([]T, 0, prealloc)}
}

// Enqueue adds an item to the tail of the queue.
func (q *Queue[T]) Enqueue(item T) {
	q.items = append(q.items, item)
}

// Dequeue removes and returns the item at the head of the queue.
// It returns false if the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}

	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	// reuse the backing array once drained
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}

	return item, true
}
