package queue

import (
	"iter"
	"strings"
)

// queueSize is the size charged for a Queue block: two pointers and a counter.
const queueSize = 24

// Element is a node of a Queue. It owns a copy of its value and the link to
// the following element.
type Element struct {
	value string
	next  *Element
}

// Value returns the string stored in the element.
func (e *Element) Value() string {
	return e.value
}

// Next returns the following element, or nil if e is the last element.
func (e *Element) Next() *Element {
	return e.next
}

// Queue is a singly-linked queue of strings that tracks both its first and last
// element, so insertion at either end runs in constant time.
//
// A nil *Queue is treated as an absent queue: Size reports 0, Free, Reverse and
// Sort are no-ops, and the remaining operations return ErrNilQueue.
type Queue struct {
	head  *Element
	tail  *Element
	size  int
	alloc Allocator
}

// New creates an empty queue configured by the given options.
//
// It returns ErrAllocation if the allocator refuses storage for the queue itself,
// or the error of the first option that fails to apply.
func New(opts ...Option) (*Queue, error) {
	q := &Queue{alloc: Heap}
	for _, opt := range opts {
		if err := opt.apply(q); err != nil {
			return nil, err
		}
	}

	if err := q.alloc.Alloc(KindQueue, queueSize); err != nil {
		return nil, ErrAllocation
	}

	return q, nil
}

// Free releases every element of the queue and then the queue itself.
// The queue must not be used afterwards. Free is a no-op on a nil queue.
func (q *Queue) Free() {
	if q == nil {
		return
	}

	for q.head != nil {
		e := q.head
		q.head = e.next
		q.release(e)
	}
	q.tail = nil
	q.size = 0

	q.alloc.Free(KindQueue, queueSize)
}

// InsertHead inserts a copy of s at the head of the queue.
//
// It returns ErrNilQueue if q is nil and ErrAllocation if storage for the element
// or its value could not be obtained. On failure the queue is left unchanged.
func (q *Queue) InsertHead(s string) error {
	e, err := q.newElement(s)
	if err != nil {
		return err
	}

	e.next = q.head
	q.head = e
	if q.tail == nil {
		q.tail = e
	}
	q.size++

	return nil
}

// InsertTail inserts a copy of s at the tail of the queue.
//
// It returns ErrNilQueue if q is nil and ErrAllocation if storage for the element
// or its value could not be obtained. On failure the queue is left unchanged.
func (q *Queue) InsertTail(s string) error {
	e, err := q.newElement(s)
	if err != nil {
		return err
	}

	if q.tail == nil {
		q.head = e
	} else {
		q.tail.next = e
	}
	q.tail = e
	q.size++

	return nil
}

// RemoveHead removes the head element of the queue and copies its value into buf.
//
// At most len(buf)-1 bytes of the value are copied and followed by a zero byte, so
// buf never overflows. The number of value bytes copied is returned.
//
// It returns ErrNilQueue if q is nil and ErrEmptyQueue if the queue has no
// elements; neither the queue nor buf is modified in those cases. If buf is nil
// or empty the head element is still removed, but ErrNoBuffer is returned to
// report that its value was not delivered.
func (q *Queue) RemoveHead(buf []byte) (int, error) {
	if q == nil {
		return 0, ErrNilQueue
	}
	if q.head == nil {
		return 0, ErrEmptyQueue
	}

	e := q.head
	q.head = e.next
	if q.head == nil {
		q.tail = nil
	}
	q.size--

	e.next = nil
	value := e.value
	q.release(e)

	if len(buf) == 0 {
		return 0, ErrNoBuffer
	}

	return CopyTruncated(buf, value), nil
}

// Size returns the number of elements in the queue, or 0 if q is nil.
func (q *Queue) Size() int {
	if q == nil {
		return 0
	}
	return q.size
}

// Head returns the first element of the queue, or nil if the queue is nil or empty.
func (q *Queue) Head() *Element {
	if q == nil {
		return nil
	}
	return q.head
}

// Tail returns the last element of the queue, or nil if the queue is nil or empty.
func (q *Queue) Tail() *Element {
	if q == nil {
		return nil
	}
	return q.tail
}

// All returns an iterator over the values of the queue from head to tail.
// The queue must not be modified during iteration.
func (q *Queue) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for e := q.Head(); e != nil; e = e.next {
			if !yield(e.value) {
				return
			}
		}
	}
}

// Values returns a snapshot of the values of the queue from head to tail.
func (q *Queue) Values() []string {
	values := make([]string, 0, q.Size())
	for v := range q.All() {
		values = append(values, v)
	}

	return values
}

// Reverse reverses the order of the elements in place. The former head becomes
// the tail and vice versa. No element is allocated or released.
func (q *Queue) Reverse() {
	if q == nil || q.size < 2 {
		return
	}

	var prev *Element
	cur := q.head
	for cur != nil {
		next := cur.next
		cur.next = prev
		prev = cur
		cur = next
	}

	q.head, q.tail = q.tail, q.head
	q.tail.next = nil
}

// Sort sorts the elements in ascending order of their values using byte-wise
// comparison. The sort is stable and relinks the existing elements without
// allocating or releasing any of them.
func (q *Queue) Sort() {
	if q == nil || q.size < 2 {
		return
	}

	q.head = mergeSort(q.head)

	tail := q.tail
	for tail.next != nil {
		tail = tail.next
	}
	q.tail = tail
}

// CopyTruncated copies s into dst, truncated to len(dst)-1 bytes, and terminates
// it with a zero byte. It returns the number of bytes of s that were copied.
// Nothing is written if dst is empty.
func CopyTruncated(dst []byte, s string) int {
	if len(dst) == 0 {
		return 0
	}

	n := copy(dst[:len(dst)-1], s)
	dst[n] = 0

	return n
}

func (q *Queue) newElement(s string) (*Element, error) {
	if q == nil {
		return nil, ErrNilQueue
	}

	if err := q.alloc.Alloc(KindElement, elementSize); err != nil {
		return nil, ErrAllocation
	}

	if err := q.alloc.Alloc(KindString, len(s)+1); err != nil {
		q.alloc.Free(KindElement, elementSize)
		return nil, ErrAllocation
	}

	return &Element{value: strings.Clone(s)}, nil
}

func (q *Queue) release(e *Element) {
	q.alloc.Free(KindString, len(e.value)+1)
	q.alloc.Free(KindElement, elementSize)
}
