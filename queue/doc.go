// Package queue provides a singly-linked queue of strings that can be used both
// as a FIFO queue and as a LIFO stack.
//
// Elements can be inserted at either end of the queue but are only removed from
// the head. The queue also supports reversing and sorting its elements in place;
// both operations relink the existing elements and never allocate or release any
// of them.
//
// Every queue, element and string copy is charged to an Allocator. The default
// allocator never fails, but callers may supply their own through WithAllocator to
// account for storage or to inject allocation failures.
//
// A Queue is not safe for concurrent use. Exactly one goroutine should own and
// manipulate a given Queue at a time.
//
// Usage Example:
//
//	q, err := queue.New()
//	if err != nil {
//	    // Handle error
//	}
//	defer q.Free()
//
//	_ = q.InsertTail("b")
//	_ = q.InsertTail("a")
//	_ = q.InsertHead("c")
//	q.Sort()
//
//	buf := make([]byte, 64)
//	n, err := q.RemoveHead(buf) // buf[:n] == "a"
package queue
